package dht11

import (
	"sync/atomic"
	"time"
)

// Snapshot is an immutable published reading.
type Snapshot struct {
	Reading Reading
	// At is when the transaction completed; zero until the first success.
	At time.Time
	// Seq counts successful transactions, starting at 1.
	Seq uint64
}

// Store holds the last validated reading. It has one writer and any number
// of readers; a reading is replaced as a whole, so readers never see a
// temperature and a humidity from different transactions.
type Store struct {
	p atomic.Pointer[Snapshot]
}

// Load returns the latest snapshot without blocking, or the zero Snapshot if
// nothing has been published yet.
func (s *Store) Load() Snapshot {
	if p := s.p.Load(); p != nil {
		return *p
	}
	return Snapshot{}
}

// Publish replaces the snapshot. Callers must not publish concurrently.
func (s *Store) Publish(r Reading, at time.Time) Snapshot {
	next := &Snapshot{Reading: r, At: at, Seq: s.Load().Seq + 1}
	s.p.Store(next)
	return *next
}
