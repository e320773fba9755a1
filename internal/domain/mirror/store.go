package mirror

import (
	"context"
	"sort"
	"sync"
)

// Store is the Mirror Store contract. Keys are record ids.
type Store interface {
	// Upsert writes doc under key, fully replacing any existing document.
	Upsert(ctx context.Context, key int64, doc Document) error

	// Delete removes the document under key. A missing document is not an error.
	Delete(ctx context.Context, key int64) error
}

// NopStore discards every write. Used when mirroring is disabled.
type NopStore struct{}

// Upsert implements Store.
func (NopStore) Upsert(context.Context, int64, Document) error { return nil }

// Delete implements Store.
func (NopStore) Delete(context.Context, int64) error { return nil }

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[int64]Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[int64]Document)}
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(_ context.Context, key int64, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = doc
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
	return nil
}

// Get returns the document under key.
func (s *MemoryStore) Get(key int64) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key]
	return doc, ok
}

// Keys returns the stored keys in ascending order.
func (s *MemoryStore) Keys() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]int64, 0, len(s.docs))
	for k := range s.docs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
