package vector

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-process Repository using exact cosine search.
type MemoryRepository struct {
	mu   sync.RWMutex
	dim  int
	docs map[string]Document
}

// NewMemory creates an empty in-process repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{docs: map[string]Document{}}
}

func (m *MemoryRepository) EnsureCollection(_ context.Context, dim int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dim = dim
	return nil
}

func (m *MemoryRepository) Upsert(_ context.Context, docs []Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return nil
}

func (m *MemoryRepository) Search(_ context.Context, vec []float32, topK int) ([]SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SearchResult, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, SearchResult{ID: d.ID, Score: Cosine(vec, d.Vector), Metadata: d.Metadata})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if topK < len(out) {
		out = out[:topK]
	}
	return out, nil
}

// Len returns the number of stored documents.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *MemoryRepository) Close() error { return nil }

var _ Repository = (*MemoryRepository)(nil)
