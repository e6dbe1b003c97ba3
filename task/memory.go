package task

import (
	"context"
	"sync"
)

// MemoryStore keeps records in a map guarded by a RWMutex. Records are
// never evicted and are lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	opts    options
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory registry.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		opts:    buildOptions(opts),
	}
}

// Create registers a new processing record.
func (s *MemoryStore) Create(_ context.Context, opts CreateOptions) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < maxIDAttempts; i++ {
		id := s.opts.newID()
		if _, exists := s.records[id]; exists || id == "" {
			continue
		}
		rec := newRecord(id, opts, s.opts.now())
		s.records[id] = rec
		return rec.Clone(), nil
	}
	return nil, ErrIDExhausted
}

// Get returns a copy of the record.
func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

// SetResult resolves the record as completed.
func (s *MemoryStore) SetResult(_ context.Context, id, path string) error {
	return s.resolve(id, func(r *Record) error { return r.Complete(path, s.opts.now()) })
}

// SetFailed resolves the record as failed.
func (s *MemoryStore) SetFailed(_ context.Context, id, message string) error {
	return s.resolve(id, func(r *Record) error { return r.Fail(message, s.opts.now()) })
}

// Len returns the number of records held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) resolve(id string, fn func(*Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	return fn(rec)
}
