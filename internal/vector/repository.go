// Package vector indexes directive profiles of source units for similarity
// search.
package vector

import "context"

// Document is one indexed unit profile.
type Document struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// SearchResult is a single match from a similarity search.
type SearchResult struct {
	ID       string
	Score    float32
	Metadata map[string]string
}

// Repository provides vector storage and similarity search.
type Repository interface {
	// EnsureCollection creates the backing collection for dim-sized vectors
	// if it does not exist yet.
	EnsureCollection(ctx context.Context, dim int) error
	// Upsert inserts or updates documents.
	Upsert(ctx context.Context, docs []Document) error
	// Search finds the top-k most similar documents.
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
	// Close releases resources.
	Close() error
}
