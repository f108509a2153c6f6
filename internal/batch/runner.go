package batch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/efebarandurmaz/ompcfg/internal/discovery"
	"github.com/efebarandurmaz/ompcfg/internal/logging"
	"github.com/efebarandurmaz/ompcfg/internal/metrics"
	"github.com/efebarandurmaz/ompcfg/internal/observability"
	"github.com/efebarandurmaz/ompcfg/internal/pipeline"
)

// Runner discovers units under a root and processes them concurrently.
type Runner struct {
	Finder      *discovery.Finder
	Processor   *Processor
	Workers     int
	Incremental bool
}

// Run processes every unit under root. Only a failed discovery or a
// cancelled context is an error; unit failures are tallied in the metrics.
func (r *Runner) Run(ctx context.Context, root string) (*metrics.BatchMetrics, error) {
	ctx, span := observability.StartBatchSpan(ctx, root)
	defer span.End()
	log := logging.FromContext(ctx)

	m := metrics.New(root)
	found, err := r.Finder.Discover(ctx, root)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	m.SetDiscovered(len(found.Units) + len(found.Failures))
	for _, f := range found.Failures {
		m.AddFailure(f.Path, unreadable(f.Err))
	}
	log.Info("discovered source units", "root", root, "units", len(found.Units), "unreadable", len(found.Failures))

	if r.Incremental {
		_, pruned, err := r.Processor.Prune(ctx, root, found.Units)
		if err != nil {
			log.Warn("cache prune failed", "error", err)
		}
		for _, unit := range pruned {
			m.AddPruned(unit)
		}
	}

	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, u := range found.Units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r.processOne(gctx, m, u)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	m.Finish()
	observability.RecordBatchResult(span, m.Succeeded, m.Failed, m.Skipped)
	return m, nil
}

func (r *Runner) processOne(ctx context.Context, m *metrics.BatchMetrics, u pipeline.Unit) {
	if r.Incremental && r.Processor.Fresh(ctx, u) {
		r.Processor.Skip(ctx, u)
		m.AddSkipped(u.Name)
		return
	}
	res, err := r.Processor.Process(ctx, u)
	if err != nil {
		logging.FromContext(ctx).Warn("unit failed", "unit", u.Name, "error", err)
		m.AddFailure(u.Name, err)
		return
	}
	m.AddSuccess(metrics.UnitMetrics{
		Name:      u.Name,
		Archetype: res.Archetype.String(),
		Output:    res.Output,
		Renderer:  res.Render.Renderer,
		Failed:    res.FailedChecks(),
		Duration:  res.Duration,
	})
}

type unreadable string

func (e unreadable) Error() string { return string(e) }
