package vectorstore

import (
	"context"
	"sync"

	"github.com/capitalize-ai/support-router/internal/model"
)

// MemoryIndex is an in-process brute-force index. Upserting an existing ID
// replaces it in place.
type MemoryIndex struct {
	mu      sync.RWMutex
	order   []string
	vectors map[string]model.Vector
}

// NewMemoryIndex returns an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{vectors: make(map[string]model.Vector)}
}

// Upsert stores vectors, replacing any with the same ID.
func (m *MemoryIndex) Upsert(ctx context.Context, vectors []model.Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vectors {
		if _, ok := m.vectors[v.ID]; !ok {
			m.order = append(m.order, v.ID)
		}
		vals := make([]float32, len(v.Values))
		copy(vals, v.Values)
		m.vectors[v.ID] = model.Vector{ID: v.ID, Values: vals, Metadata: copyMeta(v.Metadata)}
	}
	return nil
}

// Query returns up to k vectors matching filter, best first.
func (m *MemoryIndex) Query(ctx context.Context, vector []float32, k int, filter map[string]string) ([]model.Match, error) {
	if k <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]model.Match, 0, len(m.order))
	for _, id := range m.order {
		v := m.vectors[id]
		if !matchesFilter(v.Metadata, filter) {
			continue
		}
		matches = append(matches, model.Match{ID: id, Score: Cosine(vector, v.Values), Metadata: copyMeta(v.Metadata)})
	}
	return topK(matches, k), nil
}

// Delete removes every vector whose metadata matches filter and returns how
// many were removed.
func (m *MemoryIndex) Delete(ctx context.Context, filter map[string]string) (int, error) {
	if len(filter) == 0 {
		return 0, ErrEmptyFilter
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.order[:0]
	removed := 0
	for _, id := range m.order {
		if matchesFilter(m.vectors[id].Metadata, filter) {
			delete(m.vectors, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return removed, nil
}

// Len returns the number of stored vectors.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}
