// Package index implements the in-memory positional inverted index:
// term → postings, each posting tracking a page's frequency and
// ascending token positions for that term. It is the transient mirror
// spec.md describes — reconstructible from Store, never the sole
// source of truth.
package index

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Posting is one page's occurrence record for a term.
type Posting struct {
	PageID    int64
	Frequency int
	Positions []int
}

// postingList holds every page's Posting for a single term, guarded by
// its own mutex so concurrent Add calls for different terms never
// contend on a single global lock.
type postingList struct {
	mu     sync.Mutex
	byPage map[int64]*Posting
}

func newPostingList() *postingList {
	return &postingList{byPage: make(map[int64]*Posting)}
}

func (pl *postingList) add(pageID int64, position int) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	p, ok := pl.byPage[pageID]
	if !ok {
		p = &Posting{PageID: pageID}
		pl.byPage[pageID] = p
	}
	p.Positions = append(p.Positions, position)
	p.Frequency = len(p.Positions)
}

// snapshot returns an immutable copy of every posting in this list,
// sorted by PageID for deterministic iteration.
func (pl *postingList) snapshot() []Posting {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	out := make([]Posting, 0, len(pl.byPage))
	for _, p := range pl.byPage {
		positions := make([]int, len(p.Positions))
		copy(positions, p.Positions)
		out = append(out, Posting{PageID: p.PageID, Frequency: p.Frequency, Positions: positions})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PageID < out[j].PageID })
	return out
}

func (pl *postingList) pageSet() map[int64]struct{} {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	set := make(map[int64]struct{}, len(pl.byPage))
	for pageID := range pl.byPage {
		set[pageID] = struct{}{}
	}
	return set
}

func (pl *postingList) size() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return len(pl.byPage)
}

// remove drops pageID's posting, returning how many positions it held
// (0 if absent) and whether the list is now empty, so the caller can
// drop the whole term entry and keep an occurrence counter in sync.
func (pl *postingList) remove(pageID int64) (removed int, empty bool) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if p, ok := pl.byPage[pageID]; ok {
		removed = len(p.Positions)
	}
	delete(pl.byPage, pageID)
	return removed, len(pl.byPage) == 0
}

// Index is the concurrency-safe term → postings map.
type Index struct {
	mu               sync.RWMutex
	terms            map[string]*postingList
	totalOccurrences atomic.Int64
}

// New creates an empty Index.
func New() *Index {
	return &Index{terms: make(map[string]*postingList)}
}

// Add appends position to the posting for (term, pageID), creating the
// term's posting list and the page's posting within it as needed, and
// incrementing both that posting's frequency and the index-wide
// occurrence counter. term is matched case-insensitively by virtue of
// always being stored and looked up lower-cased by callers (the
// Analyzer already lower-cases every stem it produces).
func (idx *Index) Add(term string, pageID int64, position int) {
	pl := idx.postingListFor(term, true)
	pl.add(pageID, position)
	idx.totalOccurrences.Add(1)
}

// postingListFor returns the postingList for term, creating it under a
// write lock when create is true and none exists yet. A read lock is
// tried first so the common case (term already present) never blocks
// concurrent readers against each other.
func (idx *Index) postingListFor(term string, create bool) *postingList {
	idx.mu.RLock()
	pl, ok := idx.terms[term]
	idx.mu.RUnlock()
	if ok || !create {
		return pl
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if pl, ok = idx.terms[term]; ok {
		return pl
	}
	pl = newPostingList()
	idx.terms[term] = pl
	return pl
}

// Postings returns an immutable snapshot of every posting for term, or
// an empty slice if term has never been added.
func (idx *Index) Postings(term string) []Posting {
	pl := idx.postingListFor(term, false)
	if pl == nil {
		return []Posting{}
	}
	return pl.snapshot()
}

// DocumentFrequency returns the number of pages containing term.
func (idx *Index) DocumentFrequency(term string) int {
	pl := idx.postingListFor(term, false)
	if pl == nil {
		return 0
	}
	return pl.size()
}

// PagesContainingAll returns the intersection of every term's page
// set, short-circuiting to an empty result as soon as any term has no
// postings at all.
func (idx *Index) PagesContainingAll(terms []string) []int64 {
	if len(terms) == 0 {
		return nil
	}
	var result map[int64]struct{}
	for _, term := range terms {
		pl := idx.postingListFor(term, false)
		if pl == nil {
			return nil
		}
		pages := pl.pageSet()
		if len(pages) == 0 {
			return nil
		}
		if result == nil {
			result = pages
			continue
		}
		result = intersect(result, pages)
		if len(result) == 0 {
			return nil
		}
	}
	return mapKeys(result)
}

// PagesContainingAny returns the union of every term's page set.
func (idx *Index) PagesContainingAny(terms []string) []int64 {
	union := make(map[int64]struct{})
	for _, term := range terms {
		pl := idx.postingListFor(term, false)
		if pl == nil {
			continue
		}
		for pageID := range pl.pageSet() {
			union[pageID] = struct{}{}
		}
	}
	return mapKeys(union)
}

// UniqueTerms returns the number of distinct terms held in the index.
func (idx *Index) UniqueTerms() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.terms)
}

// TotalOccurrences returns the number of positions currently held
// across all terms and pages: Add increments it, RemovePage subtracts
// the removed positions, and Clear resets it to zero.
func (idx *Index) TotalOccurrences() int64 {
	return idx.totalOccurrences.Load()
}

// RemovePage drops every posting for pageID across all terms, dropping
// a term entirely once its last page is removed. Indexer calls this
// before re-adding a page's tokens so the in-memory mirror never
// accumulates a second copy of positions already recorded for that
// page (see ReindexPage/IndexPage).
func (idx *Index) RemovePage(pageID int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	var removed int64
	for term, pl := range idx.terms {
		n, empty := pl.remove(pageID)
		removed += int64(n)
		if empty {
			delete(idx.terms, term)
		}
	}
	idx.totalOccurrences.Add(-removed)
}

// Clear empties the index entirely.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.terms = make(map[string]*postingList)
	idx.totalOccurrences.Store(0)
}

func intersect(a, b map[int64]struct{}) map[int64]struct{} {
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	out := make(map[int64]struct{})
	for k := range small {
		if _, ok := big[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

func mapKeys(m map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
