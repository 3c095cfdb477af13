package knowledge

import (
	"sync/atomic"
	"time"
)

// Store holds the current knowledge Snapshot behind an atomic pointer.
// Concurrent readers always observe a fully-formed snapshot: refresh
// replaces the whole snapshot in one swap, so a reader can never see a
// document list that mixes old and new batches.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a Store holding an empty snapshot with a zero refresh
// time.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&Snapshot{})
	return s
}

// Current returns the snapshot in effect right now. Callers handling a
// message should take it once at the start and use that value throughout.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace installs snap as the current snapshot.
func (s *Store) Replace(snap *Snapshot) {
	s.current.Store(snap)
}

// LastRefreshed reports when the current snapshot was installed. The zero
// time means the first refresh has not completed yet.
func (s *Store) LastRefreshed() time.Time {
	return s.current.Load().RefreshedAt
}
