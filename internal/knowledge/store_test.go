package knowledge

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestNewStoreStartsEmpty(t *testing.T) {
	s := NewStore()
	snap := s.Current()
	if snap == nil {
		t.Fatal("expected a non-nil snapshot")
	}
	if len(snap.Documents) != 0 {
		t.Errorf("expected no documents, got %d", len(snap.Documents))
	}
	if !s.LastRefreshed().IsZero() {
		t.Error("expected zero refresh time before first refresh")
	}
}

func TestReplaceSwapsWholeSnapshot(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.Replace(&Snapshot{
		Documents:   []Document{{SourceID: "a", Text: "alpha", FetchedAt: now}},
		RefreshedAt: now,
	})

	snap := s.Current()
	if len(snap.Documents) != 1 || snap.Documents[0].Text != "alpha" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if !s.LastRefreshed().Equal(now) {
		t.Errorf("LastRefreshed: got %v, want %v", s.LastRefreshed(), now)
	}
}

// TestReadersNeverSeeMixedBatches hammers the store with concurrent
// replacements while readers verify every observed snapshot is internally
// consistent: all documents in one snapshot carry the same batch marker.
func TestReadersNeverSeeMixedBatches(t *testing.T) {
	s := NewStore()

	makeBatch := func(gen int) *Snapshot {
		docs := make([]Document, 3)
		for i := range docs {
			docs[i] = Document{
				SourceID: fmt.Sprintf("src-%d", i),
				Text:     fmt.Sprintf("batch-%d", gen),
			}
		}
		return &Snapshot{Documents: docs, RefreshedAt: time.Now()}
	}
	s.Replace(makeBatch(0))

	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for gen := 1; gen <= 1000; gen++ {
			s.Replace(makeBatch(gen))
		}
		close(done)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap := s.Current()
				if len(snap.Documents) != 3 {
					t.Errorf("partial snapshot observed: %d documents", len(snap.Documents))
					return
				}
				marker := snap.Documents[0].Text
				for _, d := range snap.Documents[1:] {
					if d.Text != marker {
						t.Errorf("mixed batch observed: %q vs %q", marker, d.Text)
						return
					}
				}
			}
		}()
	}

	wg.Wait()
}

func TestTotalChars(t *testing.T) {
	snap := &Snapshot{Documents: []Document{
		{Text: "abc"},
		{Text: "defgh"},
	}}
	if got := snap.TotalChars(); got != 8 {
		t.Errorf("TotalChars: got %d, want 8", got)
	}
}
