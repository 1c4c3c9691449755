// Package search implements query analysis, conjunctive retrieval over
// the in-memory Index, TF-IDF ranking, and highlighted snippet
// extraction.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/codepr/gosearch/internal/analyzer"
	"github.com/codepr/gosearch/internal/index"
	"github.com/codepr/gosearch/internal/store"
)

// Settings are the search.* configuration values from spec.md §6, plus
// the indexer.min/max.word.length bounds the query analyzer must share
// with the Indexer so a query term is never filtered out by one stage
// and kept by the other.
type Settings struct {
	MaxResults    int
	SnippetLength int
	WordBounds    analyzer.Bounds
}

// Result is one ranked hit returned by Search.
type Result struct {
	Rank    int
	PageID  int64
	URL     string
	Title   string
	Score   float64
	Snippet string
}

// Engine retrieves and ranks pages over a Store/Index pair built by
// the Indexer.
type Engine struct {
	store    *store.Store
	index    *index.Index
	settings Settings
}

// New constructs a search Engine.
func New(st *store.Store, idx *index.Index, settings Settings) *Engine {
	if settings.MaxResults <= 0 {
		settings.MaxResults = 10
	}
	if settings.SnippetLength <= 0 {
		settings.SnippetLength = 200
	}
	if settings.WordBounds == (analyzer.Bounds{}) {
		settings.WordBounds = analyzer.DefaultBounds
	}
	return &Engine{store: st, index: idx, settings: settings}
}

// Search analyzes query, retrieves pages containing every stemmed
// term, scores them by TF-IDF, and returns up to limit ranked results
// (limit<=0 uses the configured MaxResults). An empty or
// entirely-stop-worded query yields an empty, non-nil slice.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	stemmedTerms, originalTerms := analyzer.AnalyzeQueryWithBounds(query, e.settings.WordBounds)
	if len(stemmedTerms) == 0 {
		return []Result{}, nil
	}
	if limit <= 0 {
		limit = e.settings.MaxResults
	}

	candidates := e.index.PagesContainingAll(stemmedTerms)
	if len(candidates) == 0 {
		return []Result{}, nil
	}

	totalPages, err := e.store.CountPages(ctx)
	if err != nil {
		return []Result{}, fmt.Errorf("search: count pages: %w", err)
	}
	n := totalPages
	if n < 1 {
		n = 1
	}

	termFrequency := make([]map[int64]int, len(stemmedTerms))
	idf := make([]float64, len(stemmedTerms))
	for i, term := range stemmedTerms {
		byPage := make(map[int64]int)
		for _, p := range e.index.Postings(term) {
			byPage[p.PageID] = p.Frequency
		}
		termFrequency[i] = byPage
		df := e.index.DocumentFrequency(term)
		if df < 1 {
			df = 1
		}
		idf[i] = math.Log(float64(n) / float64(df))
	}

	type scored struct {
		pageID int64
		score  float64
	}
	scores := make([]scored, 0, len(candidates))
	for _, pageID := range candidates {
		page, err := e.store.GetPageByID(ctx, pageID)
		if err != nil {
			continue
		}
		var score float64
		for i := range stemmedTerms {
			freq := termFrequency[i][pageID]
			if page.WordCount > 0 {
				score += (float64(freq) / float64(page.WordCount)) * idf[i]
			}
		}
		scores = append(scores, scored{pageID: pageID, score: score})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].pageID < scores[j].pageID
	})

	if limit < len(scores) {
		scores = scores[:limit]
	}

	results := make([]Result, 0, len(scores))
	for i, s := range scores {
		page, err := e.store.GetPageByID(ctx, s.pageID)
		if err != nil {
			continue
		}
		results = append(results, Result{
			Rank:    i + 1,
			PageID:  page.ID,
			URL:     page.URL,
			Title:   page.Title,
			Score:   s.score,
			Snippet: Snippet(page.Body, originalTerms, e.settings.SnippetLength),
		})
	}
	return results, nil
}

// SearchPaginated returns the [(page-1)*pageSize, page*pageSize) slice
// of Search's full ranked list.
func (e *Engine) SearchPaginated(ctx context.Context, query string, page, pageSize int) ([]Result, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = e.settings.MaxResults
	}
	all, err := e.Search(ctx, query, page*pageSize)
	if err != nil {
		return nil, err
	}
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []Result{}, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

// Snippet extracts a highlighted excerpt of body around the earliest
// case-insensitive occurrence of any term in terms, per spec.md §4.9.
func Snippet(body string, terms []string, snippetLength int) string {
	if snippetLength <= 0 {
		snippetLength = 200
	}
	lowerBody := strings.ToLower(body)

	pos := -1
	matchLen := 0
	for _, term := range terms {
		if term == "" {
			continue
		}
		idx := strings.Index(lowerBody, strings.ToLower(term))
		if idx == -1 {
			continue
		}
		if pos == -1 || idx < pos {
			pos = idx
			matchLen = len(term)
		}
	}

	var excerpt string
	truncatedLeft, truncatedRight := false, false

	if pos == -1 {
		excerpt, truncatedRight = prefixExcerpt(body, snippetLength)
	} else {
		ctx := snippetLength / 2
		start := pos - ctx
		if start < 0 {
			start = 0
		}
		end := pos + matchLen + ctx
		if end > len(body) {
			end = len(body)
		}
		excerpt = strings.TrimSpace(body[start:end])
		truncatedLeft = start > 0
		truncatedRight = end < len(body)
	}

	if truncatedLeft {
		excerpt = "…" + excerpt
	}
	if truncatedRight {
		excerpt = excerpt + "…"
	}
	return highlight(excerpt, terms)
}

// prefixExcerpt returns the first snippetLength bytes of body, backed
// off to the nearest whitespace within 20 characters of the boundary,
// plus whether the result was truncated.
func prefixExcerpt(body string, snippetLength int) (string, bool) {
	if len(body) <= snippetLength {
		return strings.TrimSpace(body), false
	}
	cut := snippetLength
	backoffLimit := cut - 20
	if backoffLimit < 0 {
		backoffLimit = 0
	}
	for i := cut; i > backoffLimit; i-- {
		if body[i] == ' ' {
			cut = i
			break
		}
	}
	return strings.TrimSpace(body[:cut]), true
}

// highlight wraps every non-overlapping case-insensitive occurrence of
// each term in body with ** markers.
func highlight(text string, terms []string) string {
	if len(terms) == 0 {
		return text
	}
	lowerText := strings.ToLower(text)

	type span struct{ start, end int }
	var spans []span
	for _, term := range terms {
		if term == "" {
			continue
		}
		lowerTerm := strings.ToLower(term)
		from := 0
		for {
			i := strings.Index(lowerText[from:], lowerTerm)
			if i == -1 {
				break
			}
			start := from + i
			end := start + len(lowerTerm)
			spans = append(spans, span{start, end})
			from = end
		}
	}
	if len(spans) == 0 {
		return text
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.start <= last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}

	var b strings.Builder
	cursor := 0
	for _, s := range merged {
		b.WriteString(text[cursor:s.start])
		b.WriteString("**")
		b.WriteString(text[s.start:s.end])
		b.WriteString("**")
		cursor = s.end
	}
	b.WriteString(text[cursor:])
	return b.String()
}
