// Package indexer pipes a Page's stored content through the Analyzer
// and populates the Index, keeping Store's durable postings and the
// in-memory Index consistent with each other.
package indexer

import (
	"context"
	"fmt"
	"log"

	"github.com/codepr/gosearch/internal/analyzer"
	"github.com/codepr/gosearch/internal/index"
	"github.com/codepr/gosearch/internal/store"
)

// Listener receives best-effort progress notifications, mirroring the
// crawl engine's event contract.
type Listener struct {
	PageIndexed func(pageID int64, termCount int)
	PageFailed  func(pageID int64, err error)
}

func (l *Listener) pageIndexed(pageID int64, termCount int) {
	if l != nil && l.PageIndexed != nil {
		l.PageIndexed(pageID, termCount)
	}
}

func (l *Listener) pageFailed(pageID int64, err error) {
	if l != nil && l.PageFailed != nil {
		l.PageFailed(pageID, err)
	}
}

// Indexer couples a Store and an in-memory Index; every analyzed term
// is added to both, so a restart can rebuild the Index purely from
// Store via IndexAllPages.
type Indexer struct {
	store    *store.Store
	index    *index.Index
	listener *Listener
	bounds   analyzer.Bounds
}

// New constructs an Indexer over the given Store and Index, tokenizing
// with analyzer.DefaultBounds. Use NewWithBounds to honor
// indexer.min.word.length/indexer.max.word.length from Config.
func New(st *store.Store, idx *index.Index, listener *Listener) *Indexer {
	return NewWithBounds(st, idx, listener, analyzer.DefaultBounds)
}

// NewWithBounds is New with caller-supplied token-length bounds.
func NewWithBounds(st *store.Store, idx *index.Index, listener *Listener, bounds analyzer.Bounds) *Indexer {
	return &Indexer{store: st, index: idx, listener: listener, bounds: bounds}
}

// group accumulates the ascending positions seen for one stem within a
// single page, matching the locally-grouped write spec.md §4.8 calls
// for before the Store round-trip.
type group struct {
	positions []int
}

// IndexPage analyzes page's title and body, adds every surviving term
// to the in-memory Index, and persists the same postings to Store (one
// transaction per term, each UpsertPosting call committing on its own;
// the page's postings are not written atomically as a whole), then
// updates the page's word count.
func (ix *Indexer) IndexPage(ctx context.Context, page store.Page) error {
	// Drop any postings this page already holds in memory before
	// re-adding, so indexing the same page twice (directly, or via
	// ReindexPage) never stacks a second copy of its positions.
	ix.index.RemovePage(page.ID)

	tokens := analyzer.AnalyzeWithBounds(page.Title, page.Body, ix.bounds)

	groups := make(map[string]*group, len(tokens))
	order := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		g, ok := groups[tok.Stem]
		if !ok {
			g = &group{}
			groups[tok.Stem] = g
			order = append(order, tok.Stem)
		}
		g.positions = append(g.positions, tok.Position)
		ix.index.Add(tok.Stem, page.ID, tok.Position)
	}

	for _, term := range order {
		g := groups[term]
		if err := ix.store.UpsertPosting(ctx, term, page.ID, len(g.positions), g.positions); err != nil {
			ix.listener.pageFailed(page.ID, err)
			return fmt.Errorf("indexer: upsert posting for page %d term %q: %w", page.ID, term, err)
		}
	}

	if err := ix.store.UpdatePageWordCount(ctx, page.ID, len(tokens)); err != nil {
		ix.listener.pageFailed(page.ID, err)
		return fmt.Errorf("indexer: update word count for page %d: %w", page.ID, err)
	}

	ix.listener.pageIndexed(page.ID, len(tokens))
	return nil
}

// ReindexPage discards a page's existing postings and re-derives them
// from its current stored content.
func (ix *Indexer) ReindexPage(ctx context.Context, pageID int64) error {
	if err := ix.store.DeletePostingsForPage(ctx, pageID); err != nil {
		return fmt.Errorf("indexer: delete postings for page %d: %w", pageID, err)
	}
	page, err := ix.store.GetPageByID(ctx, pageID)
	if err != nil {
		return fmt.Errorf("indexer: load page %d: %w", pageID, err)
	}
	return ix.IndexPage(ctx, page)
}

// IndexAllPages indexes every page currently in Store, logging and
// skipping any individual failure, and returns the count of pages
// successfully indexed.
func (ix *Indexer) IndexAllPages(ctx context.Context) (int, error) {
	pages, err := ix.store.ListPages(ctx)
	if err != nil {
		return 0, fmt.Errorf("indexer: list pages: %w", err)
	}

	successes := 0
	for _, page := range pages {
		if err := ix.IndexPage(ctx, page); err != nil {
			log.Printf("indexer: skipping page %d (%s): %v", page.ID, page.URL, err)
			continue
		}
		successes++
	}
	return successes, nil
}
