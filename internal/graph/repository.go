// Package graph stores synthesized control-flow graphs per source unit.
package graph

import (
	"context"
	"errors"
	"sync"

	"github.com/efebarandurmaz/ompcfg/internal/cfg"
)

// ErrNotFound is returned when no graph is stored for a unit.
var ErrNotFound = errors.New("graph not found")

// Repository provides graph storage for synthesized CFGs.
type Repository interface {
	// StoreGraph replaces the graph stored for unit.
	StoreGraph(ctx context.Context, unit, archetype string, g *cfg.Graph) error
	// LoadGraph retrieves the graph stored for unit.
	LoadGraph(ctx context.Context, unit string) (*cfg.Graph, error)
	// QuerySuccessors returns the blocks that block flows to within unit.
	QuerySuccessors(ctx context.Context, unit, block string) ([]string, error)
	// Close releases resources.
	Close(ctx context.Context) error
}

// MemoryRepository keeps graphs in process. It backs tests and runs without
// a graph database.
type MemoryRepository struct {
	mu     sync.RWMutex
	graphs map[string]*cfg.Graph
	kinds  map[string]string
}

// NewMemory creates an empty in-process repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{graphs: map[string]*cfg.Graph{}, kinds: map[string]string{}}
}

func (m *MemoryRepository) StoreGraph(_ context.Context, unit, archetype string, g *cfg.Graph) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graphs[unit] = clone(g)
	m.kinds[unit] = archetype
	return nil
}

func (m *MemoryRepository) LoadGraph(_ context.Context, unit string) (*cfg.Graph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.graphs[unit]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(g), nil
}

func (m *MemoryRepository) QuerySuccessors(_ context.Context, unit, block string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.graphs[unit]
	if !ok {
		return nil, ErrNotFound
	}
	return g.Successors(block), nil
}

// Archetype returns the archetype recorded with unit's graph.
func (m *MemoryRepository) Archetype(unit string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.kinds[unit]
}

// Len returns the number of stored graphs.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.graphs)
}

func (m *MemoryRepository) Close(context.Context) error { return nil }

func clone(g *cfg.Graph) *cfg.Graph {
	return &cfg.Graph{
		Name:  g.Name,
		Nodes: append([]cfg.Node(nil), g.Nodes...),
		Edges: append([]cfg.Edge(nil), g.Edges...),
	}
}

var _ Repository = (*MemoryRepository)(nil)
