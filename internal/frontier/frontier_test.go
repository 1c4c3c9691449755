package frontier

import (
	"testing"
	"time"
)

func TestOfferDeduplicates(t *testing.T) {
	f := New()
	if !f.Offer("https://a/", 0) {
		t.Fatal("expected first offer to succeed")
	}
	if f.Offer("https://a/", 0) {
		t.Fatal("expected duplicate offer to be rejected")
	}
	entry, ok := f.Take()
	if !ok || entry.URL != "https://a/" {
		t.Fatalf("unexpected take result: %+v, %v", entry, ok)
	}
	if f.Offer("https://a/", 0) {
		t.Fatal("expected offer of a taken URL to still be rejected")
	}
}

func TestOfferRejectsEmpty(t *testing.T) {
	f := New()
	if f.Offer("", 0) {
		t.Fatal("expected empty URL to be rejected")
	}
}

func TestTakeBlocksUntilOffer(t *testing.T) {
	f := New()
	done := make(chan Entry, 1)
	go func() {
		entry, ok := f.Take()
		if !ok {
			return
		}
		done <- entry
	}()
	time.Sleep(20 * time.Millisecond)
	f.Offer("https://b/", 2)
	select {
	case entry := <-done:
		if entry.URL != "https://b/" || entry.Depth != 2 {
			t.Fatalf("unexpected entry: %+v", entry)
		}
	case <-time.After(time.Second):
		t.Fatal("Take did not unblock after Offer")
	}
}

func TestCancelReleasesTake(t *testing.T) {
	f := New()
	done := make(chan bool, 1)
	go func() {
		_, ok := f.Take()
		done <- ok
	}()
	time.Sleep(20 * time.Millisecond)
	f.Cancel()
	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected Take to return ok=false after Cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("Take did not unblock after Cancel")
	}
}

func TestClearResetsState(t *testing.T) {
	f := New()
	f.Offer("https://a/", 0)
	f.Cancel()
	f.Clear()
	if f.Size() != 0 {
		t.Fatalf("expected empty queue after Clear, got %d", f.Size())
	}
	if !f.Offer("https://a/", 0) {
		t.Fatal("expected Offer to succeed for a previously-known URL after Clear")
	}
}
