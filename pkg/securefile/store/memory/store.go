// Package memory is an in-memory securefile.ContentStore, used in tests and
// as a stand-in for the host content manager in the standalone server.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/cloudconstruct/securefile/pkg/securefile"
)

// Store holds content records in a map guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*securefile.ContentRecord
}

// New creates an empty store.
func New() *Store {
	return &Store{records: make(map[uuid.UUID]*securefile.ContentRecord)}
}

// Put adds or replaces a record.
func (s *Store) Put(record *securefile.ContentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
}

// GetRecord loads a record by id.
func (s *Store) GetRecord(ctx context.Context, id uuid.UUID) (*securefile.ContentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, securefile.ErrContentNotFound
	}
	return record, nil
}
