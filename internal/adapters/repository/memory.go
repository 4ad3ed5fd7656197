package repository

import (
	"context"
	"sync"

	"github.com/okian/bizboard/internal/domain/model"
)

// MemoryStore keeps documents in process. Documents go through the same JSON
// encoding as the SQL backends so reads look identical.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string][]byte
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string][]byte)}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, collection, key string) (model.Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrUnavailable
	}
	b, ok := s.data[collection][key]
	if !ok {
		return nil, false, nil
	}
	doc, err := decode(b)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, collection, key string, doc model.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := encode(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrUnavailable
	}
	c, ok := s.data[collection]
	if !ok {
		c = make(map[string][]byte)
		s.data[collection] = c
	}
	c[key] = b
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, collection, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrUnavailable
	}
	delete(s.data[collection], key)
	return nil
}

// Count returns the number of documents in a collection.
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[collection])
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
