package vector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/efebarandurmaz/ompcfg/internal/construct"
)

// ErrEmptyProfile is returned for inventories without constructs; their
// zero vector has no direction to compare.
var ErrEmptyProfile = errors.New("inventory has no constructs")

var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/efebarandurmaz/ompcfg/units"))

// PointID derives a stable UUIDv5 for unit so re-indexing overwrites.
func PointID(unit string) string {
	return uuid.NewSHA1(namespace, []byte(unit)).String()
}

// Match is a similar unit found in the index.
type Match struct {
	Unit      string  `json:"unit"`
	Archetype string  `json:"archetype"`
	Score     float32 `json:"score"`
}

// Indexer stores and queries unit profiles. It is safe for concurrent use.
type Indexer struct {
	repo Repository

	mu    sync.Mutex
	ready bool
}

// NewIndexer creates an indexer over repo.
func NewIndexer(repo Repository) *Indexer {
	return &Indexer{repo: repo}
}

// ensure creates the collection once. A failed attempt is retried on the
// next call.
func (ix *Indexer) ensure(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.ready {
		return nil
	}
	if err := ix.repo.EnsureCollection(ctx, Dim); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	ix.ready = true
	return nil
}

// Index upserts unit's profile.
func (ix *Indexer) Index(ctx context.Context, unit, archetype string, inv *construct.Inventory) error {
	vec := Profile(inv)
	if isZero(vec) {
		return ErrEmptyProfile
	}
	if err := ix.ensure(ctx); err != nil {
		return err
	}
	doc := Document{
		ID:     PointID(unit),
		Vector: vec,
		Metadata: map[string]string{
			"unit":       unit,
			"archetype":  archetype,
			"constructs": strconv.Itoa(inv.Total()),
		},
	}
	if err := ix.repo.Upsert(ctx, []Document{doc}); err != nil {
		return fmt.Errorf("index %s: %w", unit, err)
	}
	return nil
}

// Similar returns up to k indexed units closest to inv's profile.
func (ix *Indexer) Similar(ctx context.Context, inv *construct.Inventory, k int) ([]Match, error) {
	vec := Profile(inv)
	if isZero(vec) {
		return nil, ErrEmptyProfile
	}
	if k <= 0 {
		k = 5
	}
	if err := ix.ensure(ctx); err != nil {
		return nil, err
	}
	results, err := ix.repo.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	out := make([]Match, len(results))
	for i, r := range results {
		out[i] = Match{Unit: r.Metadata["unit"], Archetype: r.Metadata["archetype"], Score: r.Score}
	}
	return out, nil
}
