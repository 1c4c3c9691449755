package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, 4)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndGetPage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.InsertPage(ctx, Page{
		URL: "https://example.com/", Title: "Example", Body: "body text",
		CrawledAt: time.Now(), Depth: 0,
	})
	if err != nil {
		t.Fatalf("InsertPage failed: %v", err)
	}

	got, err := s.GetPageByID(ctx, id)
	if err != nil {
		t.Fatalf("GetPageByID failed: %v", err)
	}
	if got.URL != "https://example.com/" || got.Title != "Example" {
		t.Errorf("unexpected page: %+v", got)
	}

	byURL, err := s.GetPageByURL(ctx, "https://example.com/")
	if err != nil || byURL.ID != id {
		t.Errorf("GetPageByURL mismatch: %+v, err=%v", byURL, err)
	}
}

func TestInsertPageDuplicateURL(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	page := Page{URL: "https://example.com/dup", CrawledAt: time.Now()}
	if _, err := s.InsertPage(ctx, page); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := s.InsertPage(ctx, page); !errors.Is(err, ErrURLExists) {
		t.Fatalf("expected ErrURLExists, got %v", err)
	}
}

func TestGetPageNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetPageByID(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertWordReturnsStableID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id1, err := s.UpsertWord(ctx, "java")
	if err != nil {
		t.Fatalf("UpsertWord failed: %v", err)
	}
	id2, err := s.UpsertWord(ctx, "java")
	if err != nil {
		t.Fatalf("UpsertWord second call failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected stable word id, got %d then %d", id1, id2)
	}
}

func TestUpsertPostingReplacesExisting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	pageID, err := s.InsertPage(ctx, Page{URL: "https://example.com/p", CrawledAt: time.Now()})
	if err != nil {
		t.Fatalf("InsertPage failed: %v", err)
	}

	if err := s.UpsertPosting(ctx, "java", pageID, 1, []int{0}); err != nil {
		t.Fatalf("UpsertPosting failed: %v", err)
	}
	if err := s.UpsertPosting(ctx, "java", pageID, 2, []int{0, 5}); err != nil {
		t.Fatalf("UpsertPosting (replace) failed: %v", err)
	}

	postings, err := s.PostingsForPage(ctx, pageID)
	if err != nil {
		t.Fatalf("PostingsForPage failed: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected exactly one posting row, got %d", len(postings))
	}
	if postings[0].Frequency != 2 || len(postings[0].Positions) != 2 {
		t.Errorf("unexpected posting after replace: %+v", postings[0])
	}
}

func TestDeletePostingsForPage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	pageID, _ := s.InsertPage(ctx, Page{URL: "https://example.com/q", CrawledAt: time.Now()})
	_ = s.UpsertPosting(ctx, "java", pageID, 1, []int{0})

	if err := s.DeletePostingsForPage(ctx, pageID); err != nil {
		t.Fatalf("DeletePostingsForPage failed: %v", err)
	}
	postings, err := s.PostingsForPage(ctx, pageID)
	if err != nil {
		t.Fatalf("PostingsForPage failed: %v", err)
	}
	if len(postings) != 0 {
		t.Errorf("expected no postings after delete, got %d", len(postings))
	}
}

func TestDeletePageCascadesPostings(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	pageID, _ := s.InsertPage(ctx, Page{URL: "https://example.com/r", CrawledAt: time.Now()})
	_ = s.UpsertPosting(ctx, "java", pageID, 1, []int{0})

	if err := s.DeletePage(ctx, pageID); err != nil {
		t.Fatalf("DeletePage failed: %v", err)
	}
	pages, err := s.PagesForTerm(ctx, "java")
	if err != nil {
		t.Fatalf("PagesForTerm failed: %v", err)
	}
	if len(pages) != 0 {
		t.Errorf("expected posting cascade-deleted, got pages %v", pages)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, err := s.CreateSession(ctx, "https://example.com/", 3)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if sess.Status != SessionRunning || sess.Seed != "https://example.com/" {
		t.Errorf("unexpected session: %+v", sess)
	}

	now := time.Now()
	if err := s.UpdateSession(ctx, id, 5, &now, SessionCompleted); err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}
	sess, err = s.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession after update failed: %v", err)
	}
	if sess.Status != SessionCompleted || sess.PagesCrawled != 5 || sess.EndedAt == nil {
		t.Errorf("unexpected session after update: %+v", sess)
	}
}

func TestClearAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	pageID, _ := s.InsertPage(ctx, Page{URL: "https://example.com/s", CrawledAt: time.Now()})
	_ = s.UpsertPosting(ctx, "java", pageID, 1, []int{0})
	_, _ = s.CreateSession(ctx, "https://example.com/", 1)

	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	count, err := s.CountPages(ctx)
	if err != nil {
		t.Fatalf("CountPages failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 pages after ClearAll, got %d", count)
	}
}
