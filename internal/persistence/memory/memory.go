package memory

import (
	"context"
	"sync"

	"github.com/example/room-calendar/internal/persistence"
)

// Store provides an in-memory persistence.Store implementation.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]persistence.Record

	// ReadErr and WriteErr, when set, are returned by the next operations.
	// They let callers exercise store failure paths.
	ReadErr  error
	WriteErr error
	writes   int
}

// New returns an empty Store.
func New() *Store {
	return &Store{collections: make(map[string][]persistence.Record)}
}

// Read returns a copy of the named collection.
func (s *Store) Read(_ context.Context, name string) ([]persistence.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ReadErr != nil {
		return nil, persistence.ReadError(name, s.ReadErr)
	}

	records, ok := s.collections[name]
	if !ok {
		return []persistence.Record{}, nil
	}
	return persistence.CloneRecords(records), nil
}

// Write replaces the named collection with a copy of records.
func (s *Store) Write(_ context.Context, name string, records []persistence.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.WriteErr != nil {
		return persistence.WriteError(name, s.WriteErr)
	}

	cloned := persistence.CloneRecords(records)
	if cloned == nil {
		cloned = []persistence.Record{}
	}
	s.collections[name] = cloned
	s.writes++
	return nil
}

// Writes reports how many successful writes the store has accepted.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
