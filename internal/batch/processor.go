// Package batch runs the pipeline over source units and persists the
// results.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/viant/afs"

	"github.com/efebarandurmaz/ompcfg/internal/cache"
	"github.com/efebarandurmaz/ompcfg/internal/graph"
	"github.com/efebarandurmaz/ompcfg/internal/logging"
	"github.com/efebarandurmaz/ompcfg/internal/observability"
	"github.com/efebarandurmaz/ompcfg/internal/output"
	"github.com/efebarandurmaz/ompcfg/internal/pipeline"
	"github.com/efebarandurmaz/ompcfg/internal/render"
	"github.com/efebarandurmaz/ompcfg/internal/vector"
)

// ErrEmptyUnit is returned for a unit whose source is blank.
var ErrEmptyUnit = errors.New("source unit is empty")

// UnitResult is what Process produced for one unit.
type UnitResult struct {
	*pipeline.Result
	Output   string         `json:"output"`
	Render   render.Outcome `json:"render"`
	Duration time.Duration  `json:"-"`
	// DurationMs mirrors Duration for JSON output.
	DurationMs int64 `json:"duration_ms"`
}

// Processor generates, writes and optionally renders, stores and indexes
// one unit at a time. Optional collaborators are nil when disabled.
type Processor struct {
	FS      afs.Service
	Writer  *output.Writer
	Chain   *render.Chain
	Graphs  graph.Repository
	Indexer *vector.Indexer
	Cache   *cache.Store
	Stats   *observability.UnitStats
}

// ProcessPath reads the unit at path and processes it. Missing, unreadable
// and blank files are unit failures.
func (p *Processor) ProcessPath(ctx context.Context, path string) (*UnitResult, error) {
	u, err := p.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return p.Process(ctx, u)
}

// Read loads the unit at path.
func (p *Processor) Read(ctx context.Context, path string) (pipeline.Unit, error) {
	fs := p.FS
	if fs == nil {
		fs = afs.New()
	}
	ok, err := fs.Exists(ctx, path)
	if err != nil {
		return pipeline.Unit{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if !ok {
		return pipeline.Unit{}, fmt.Errorf("input file '%s' not found", path)
	}
	data, err := fs.DownloadWithURL(ctx, path)
	if err != nil {
		return pipeline.Unit{}, fmt.Errorf("reading file '%s': %w", path, err)
	}
	return pipeline.Unit{Name: path, Source: string(data)}, nil
}

// Process runs the pipeline over u and persists the DOT output. Only a blank
// unit or a failed write is an error; rendering, graph storage, indexing and
// caching problems are logged.
func (p *Processor) Process(ctx context.Context, u pipeline.Unit) (*UnitResult, error) {
	start := time.Now()
	ctx, span := observability.StartUnitSpan(ctx, filepath.Base(u.Name))
	defer span.End()
	log := logging.FromContext(ctx).With("unit", u.Name)

	if p.Stats != nil {
		p.Stats.InFlight.Inc()
		defer p.Stats.InFlight.Dec()
	}

	if strings.TrimSpace(u.Source) == "" {
		err := fmt.Errorf("%s: %w", u.Name, ErrEmptyUnit)
		observability.RecordError(span, err)
		p.countFailure()
		return nil, err
	}

	res := &UnitResult{Result: pipeline.Run(ctx, u)}
	observability.RecordArchetype(span, res.Archetype.String(), res.Inventory.Total())

	loc, err := p.Writer.Write(ctx, u.Name, res.DOT)
	if err != nil {
		observability.RecordError(span, err)
		p.countFailure()
		return nil, err
	}
	res.Output = loc

	if p.Chain != nil {
		base := strings.TrimSuffix(loc, filepath.Ext(loc))
		res.Render = p.Chain.Render(ctx, res.Graph, res.DOT, base)
		if p.Stats != nil {
			p.Stats.RecordRender(res.Render.Renderer)
		}
	}

	if p.Graphs != nil {
		if err := p.Graphs.StoreGraph(ctx, u.Name, res.Archetype.String(), res.Graph); err != nil {
			log.Warn("graph store failed", "error", err)
		}
	}

	if p.Indexer != nil {
		err := p.Indexer.Index(ctx, u.Name, res.Archetype.String(), res.Inventory)
		if err != nil && !errors.Is(err, vector.ErrEmptyProfile) {
			log.Warn("profile index failed", "error", err)
		}
	}

	if p.Cache != nil {
		err := p.Cache.Put(cache.Entry{
			Unit:        u.Name,
			Fingerprint: cache.Fingerprint(u.Source),
			Archetype:   res.Archetype.String(),
			Output:      loc,
		})
		if err != nil {
			log.Warn("cache update failed", "error", err)
		}
	}

	res.Duration = time.Since(start)
	res.DurationMs = res.Duration.Milliseconds()
	if p.Stats != nil {
		p.Stats.RecordUnit(res.Archetype.String(), res.Duration)
	}
	log.Info("unit processed", "archetype", res.Archetype, "output", loc, "renderer", res.Render.Renderer)
	return res, nil
}

func (p *Processor) countFailure() {
	if p.Stats != nil {
		p.Stats.Failed.Inc()
	}
}

// Skip records that u was left alone as unchanged.
func (p *Processor) Skip(ctx context.Context, u pipeline.Unit) {
	logging.FromContext(ctx).Debug("unit unchanged, skipping", "unit", u.Name)
	if p.Stats != nil {
		p.Stats.Skipped.Inc()
	}
}

// Fresh reports whether u is unchanged since its cached generation and its
// output still exists.
func (p *Processor) Fresh(ctx context.Context, u pipeline.Unit) bool {
	if p.Cache == nil {
		return false
	}
	ok, err := p.Cache.Fresh(u.Name, u.Source)
	if err != nil || !ok {
		return false
	}
	return p.Writer.Exists(ctx, u.Name)
}

// Prune plans units against the cache and drops the entries of cached units
// under root that are no longer present. Units outside root are left alone.
func (p *Processor) Prune(ctx context.Context, root string, units []pipeline.Unit) (*cache.Plan, []string, error) {
	if p.Cache == nil {
		return nil, nil, nil
	}
	sources := make(map[string]string, len(units))
	for _, u := range units {
		sources[u.Name] = u.Source
	}
	plan, err := p.Cache.Analyze(sources)
	if err != nil {
		return nil, nil, err
	}

	prefix := filepath.Clean(root) + string(filepath.Separator)
	var pruned []string
	for _, unit := range plan.Deleted {
		if !strings.HasPrefix(unit, prefix) {
			continue
		}
		if err := p.Cache.Delete(unit); err != nil {
			return plan, pruned, fmt.Errorf("prune %s: %w", unit, err)
		}
		pruned = append(pruned, unit)
	}
	logging.FromContext(ctx).Info("incremental plan",
		"new", len(plan.New), "changed", len(plan.Changed), "unchanged", len(plan.Unchanged), "pruned", len(pruned))
	return plan, pruned, nil
}
