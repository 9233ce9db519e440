package retrieval

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Chunk
	closed      bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]Chunk)}
}

// Add implements Store.
func (m *MemoryStore) Add(_ context.Context, collection string, chunks []Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	for _, c := range chunks {
		// Copy the embedding to avoid retaining the caller's slice.
		emb := make([]float32, len(c.Embedding))
		copy(emb, c.Embedding)
		c.Embedding = emb
		m.collections[collection] = append(m.collections[collection], c)
	}
	return nil
}

// Search implements Store.
func (m *MemoryStore) Search(_ context.Context, collection string, query []float32, k int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	chunks := m.collections[collection]
	matches := make([]Match, 0, len(chunks))
	for _, c := range chunks {
		score, err := cosine(query, c.Embedding)
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{Source: c.Source, Content: c.Content, Score: score})
	}
	return topK(matches, k), nil
}

// Exists implements Store.
func (m *MemoryStore) Exists(_ context.Context, collection string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false, ErrStoreClosed
	}
	return len(m.collections[collection]) > 0, nil
}

// DeleteCollection implements Store.
func (m *MemoryStore) DeleteCollection(_ context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.collections, collection)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.collections = nil
	return nil
}
