package indexer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/codepr/gosearch/internal/analyzer"
	"github.com/codepr/gosearch/internal/index"
	"github.com/codepr/gosearch/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "gosearch.db"), 4)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func insertTestPage(t *testing.T, st *store.Store, url, title, body string) store.Page {
	t.Helper()
	id, err := st.InsertPage(context.Background(), store.Page{
		URL:       url,
		Title:     title,
		Body:      body,
		CrawledAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("insert page: %v", err)
	}
	page, err := st.GetPageByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	return page
}

func TestIndexPagePopulatesIndexAndStore(t *testing.T) {
	st := openTestStore(t)
	idx := index.New()
	ix := New(st, idx, nil)

	page := insertTestPage(t, st, "https://example.com/a", "Running Fast", "The runner ran quickly across the fields.")

	if err := ix.IndexPage(context.Background(), page); err != nil {
		t.Fatalf("index page: %v", err)
	}

	pages := idx.PagesContainingAll([]string{"run"})
	foundInIndex := false
	for _, pid := range pages {
		if pid == page.ID {
			foundInIndex = true
		}
	}
	if !foundInIndex {
		t.Errorf("expected stem %q to map to page %d in memory index", "run", page.ID)
	}

	postings, err := st.PagesForTerm(context.Background(), "run")
	if err != nil {
		t.Fatalf("pages for term: %v", err)
	}
	found := false
	for _, pid := range postings {
		if pid == page.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("expected page %d among stored postings for %q, got %v", page.ID, "run", postings)
	}

	updated, err := st.GetPageByID(context.Background(), page.ID)
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	if updated.WordCount == 0 {
		t.Error("expected word count to be updated after indexing")
	}
}

func TestReindexPageReplacesPostings(t *testing.T) {
	st := openTestStore(t)
	idx := index.New()
	ix := New(st, idx, nil)

	page := insertTestPage(t, st, "https://example.com/b", "Cats", "Cats chase mice.")
	if err := ix.IndexPage(context.Background(), page); err != nil {
		t.Fatalf("index page: %v", err)
	}

	// Reindex the unchanged stored content: the page must still carry a
	// single posting per term, not a second copy.
	_, err := st.GetPageByURL(context.Background(), page.URL)
	if err != nil {
		t.Fatalf("get page by url: %v", err)
	}

	if err := ix.ReindexPage(context.Background(), page.ID); err != nil {
		t.Fatalf("reindex page: %v", err)
	}

	postings, err := st.PagesForTerm(context.Background(), "cat")
	if err != nil {
		t.Fatalf("pages for term: %v", err)
	}
	if len(postings) != 1 {
		t.Errorf("expected exactly one posting for %q after reindex, got %d", "cat", len(postings))
	}

	// The in-memory mirror must stay in lockstep with Store: reindexing
	// unchanged content must not double the frequency/positions.
	memPostings := idx.Postings("cat")
	if len(memPostings) != 1 {
		t.Fatalf("expected exactly one in-memory posting for %q after reindex, got %d", "cat", len(memPostings))
	}
	if memPostings[0].Frequency != 2 {
		t.Errorf("expected in-memory frequency 2 for %q after reindex, got %d", "cat", memPostings[0].Frequency)
	}
}

func TestIndexPageHonorsConfiguredWordBounds(t *testing.T) {
	st := openTestStore(t)
	idx := index.New()
	ix := NewWithBounds(st, idx, nil, analyzer.Bounds{Min: 3, Max: 50})

	page := insertTestPage(t, st, "https://example.com/e", "Go", "Go is fun to run.")
	if err := ix.IndexPage(context.Background(), page); err != nil {
		t.Fatalf("index page: %v", err)
	}

	if pages := idx.PagesContainingAll([]string{"go"}); len(pages) != 0 {
		t.Errorf("expected Min:3 bound to drop stem %q, got pages %v", "go", pages)
	}
	if pages := idx.PagesContainingAll([]string{"run"}); len(pages) != 1 {
		t.Errorf("expected stem %q to survive Min:3 bound, got pages %v", "run", pages)
	}
}

func TestIndexAllPagesSkipsNothingOnSuccess(t *testing.T) {
	st := openTestStore(t)
	idx := index.New()
	ix := New(st, idx, nil)

	insertTestPage(t, st, "https://example.com/c1", "One", "First document body.")
	insertTestPage(t, st, "https://example.com/c2", "Two", "Second document body.")

	count, err := ix.IndexAllPages(context.Background())
	if err != nil {
		t.Fatalf("index all pages: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 pages indexed, got %d", count)
	}
}

func TestIndexPageEmitsListenerEvent(t *testing.T) {
	st := openTestStore(t)
	idx := index.New()

	var gotPageID int64
	var gotTermCount int
	ix := New(st, idx, &Listener{
		PageIndexed: func(pageID int64, termCount int) {
			gotPageID = pageID
			gotTermCount = termCount
		},
	})

	page := insertTestPage(t, st, "https://example.com/d", "Hello", "Hello world hello again.")
	if err := ix.IndexPage(context.Background(), page); err != nil {
		t.Fatalf("index page: %v", err)
	}

	if gotPageID != page.ID {
		t.Errorf("expected listener page id %d, got %d", page.ID, gotPageID)
	}
	if gotTermCount == 0 {
		t.Error("expected non-zero term count reported to listener")
	}
}
