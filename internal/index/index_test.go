package index

import (
	"sync"
	"testing"
)

func TestAddAndPostings(t *testing.T) {
	idx := New()
	idx.Add("java", 1, 0)
	idx.Add("java", 1, 5)
	idx.Add("java", 2, 1)

	postings := idx.Postings("java")
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}
	if postings[0].PageID != 1 || postings[0].Frequency != 2 {
		t.Errorf("unexpected posting for page 1: %+v", postings[0])
	}
	if postings[0].Positions[0] != 0 || postings[0].Positions[1] != 5 {
		t.Errorf("unexpected positions: %v", postings[0].Positions)
	}
}

func TestPostingsMissMissReturnsEmpty(t *testing.T) {
	idx := New()
	if got := idx.Postings("missing"); len(got) != 0 {
		t.Fatalf("expected empty slice for missing term, got %v", got)
	}
}

func TestPagesContainingAllIntersects(t *testing.T) {
	idx := New()
	idx.Add("java", 1, 0)
	idx.Add("programming", 1, 1)
	idx.Add("java", 2, 0)
	idx.Add("python", 2, 1)

	pages := idx.PagesContainingAll([]string{"java", "programming"})
	if len(pages) != 1 || pages[0] != 1 {
		t.Fatalf("expected only page 1, got %v", pages)
	}
}

func TestPagesContainingAllShortCircuitsOnMiss(t *testing.T) {
	idx := New()
	idx.Add("java", 1, 0)
	if pages := idx.PagesContainingAll([]string{"java", "nonexistent"}); len(pages) != 0 {
		t.Fatalf("expected no pages, got %v", pages)
	}
}

func TestPagesContainingAny(t *testing.T) {
	idx := New()
	idx.Add("java", 1, 0)
	idx.Add("python", 2, 0)
	pages := idx.PagesContainingAny([]string{"java", "python"})
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %v", pages)
	}
}

func TestDocumentFrequency(t *testing.T) {
	idx := New()
	idx.Add("java", 1, 0)
	idx.Add("java", 2, 0)
	if df := idx.DocumentFrequency("java"); df != 2 {
		t.Errorf("DocumentFrequency = %d, want 2", df)
	}
	if df := idx.DocumentFrequency("missing"); df != 0 {
		t.Errorf("DocumentFrequency(missing) = %d, want 0", df)
	}
}

func TestClear(t *testing.T) {
	idx := New()
	idx.Add("java", 1, 0)
	idx.Clear()
	if idx.UniqueTerms() != 0 || idx.TotalOccurrences() != 0 {
		t.Errorf("expected empty index after Clear")
	}
}

func TestConcurrentAdd(t *testing.T) {
	idx := New()
	var wg sync.WaitGroup
	for g := 0; g < 20; g++ {
		wg.Add(1)
		go func(pageID int64) {
			defer wg.Done()
			for pos := 0; pos < 50; pos++ {
				idx.Add("term", pageID, pos)
			}
		}(int64(g))
	}
	wg.Wait()
	if df := idx.DocumentFrequency("term"); df != 20 {
		t.Fatalf("DocumentFrequency = %d, want 20", df)
	}
	if total := idx.TotalOccurrences(); total != 1000 {
		t.Fatalf("TotalOccurrences = %d, want 1000", total)
	}
	for _, p := range idx.Postings("term") {
		if p.Frequency != 50 || len(p.Positions) != 50 {
			t.Fatalf("unexpected posting: %+v", p)
		}
	}
}
