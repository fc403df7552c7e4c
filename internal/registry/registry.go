// Package registry mirrors the on-chain design registry module: per-owner,
// append-only sequences of hash/owner/timestamp/title entries. Entries are
// never removed or mutated, duplicates are appended freely, and existence is
// a linear scan over the owner's sequence, exactly as the deployed contract
// behaves.
package registry

import (
	"sync"
	"time"
)

type Entry struct {
	DesignHash string
	Owner      string
	Timestamp  int64
	Title      string
}

type Store struct {
	mu      sync.RWMutex
	records map[string][]Entry
	now     func() time.Time
}

func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock lets tests pin the ledger clock.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		records: make(map[string][]Entry),
		now:     now,
	}
}

// Initialize creates an empty sequence for the owner. Calling it again is a
// no-op, matching the idempotent on-chain initializer.
func (s *Store) Initialize(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[owner]; !ok {
		s.records[owner] = []Entry{}
	}
}

// Register auto-initializes the owner if needed, stamps the current ledger
// time and appends. No uniqueness check: the same hash may be registered any
// number of times.
func (s *Store) Register(owner, designHash, title string) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := Entry{
		DesignHash: designHash,
		Owner:      owner,
		Timestamp:  s.now().Unix(),
		Title:      title,
	}
	s.records[owner] = append(s.records[owner], entry)
	return entry
}

// Exists scans the owner's sequence for an exact hash match. An owner with
// no sequence has registered nothing.
func (s *Store) Exists(owner, designHash string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.records[owner] {
		if e.DesignHash == designHash {
			return true
		}
	}
	return false
}

func (s *Store) Count(owner string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[owner])
}
