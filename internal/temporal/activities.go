package temporal

import (
	"context"
	"errors"

	"go.temporal.io/sdk/temporal"

	"github.com/efebarandurmaz/ompcfg/internal/batch"
	"github.com/efebarandurmaz/ompcfg/internal/discovery"
)

// Dependencies holds shared resources injected into activities.
type Dependencies struct {
	Finder    *discovery.Finder
	Processor *batch.Processor
}

var deps *Dependencies

// SetDependencies injects shared resources (called during worker setup).
func SetDependencies(d *Dependencies) {
	deps = d
}

var errNoDependencies = errors.New("temporal activities: dependencies not set")

// DiscoverResult lists the unit paths found under a root.
type DiscoverResult struct {
	Paths    []string
	Failures []UnitOutcome
}

// GenerateInput selects one unit.
type GenerateInput struct {
	Path        string
	Incremental bool
}

// GenerateResult reports one unit. Error carries a unit failure so the
// activity itself succeeds and is not retried.
type GenerateResult struct {
	UnitOutcome
	Skipped bool
}

func DiscoverActivity(ctx context.Context, input BatchInput) (DiscoverResult, error) {
	if deps == nil || deps.Finder == nil {
		return DiscoverResult{}, errNoDependencies
	}
	found, err := deps.Finder.Discover(ctx, input.Root)
	if errors.Is(err, discovery.ErrRootNotFound) {
		return DiscoverResult{}, temporal.NewNonRetryableApplicationError(err.Error(), "RootNotFound", err)
	}
	if err != nil {
		return DiscoverResult{}, err
	}
	res := DiscoverResult{Paths: make([]string, len(found.Units))}
	for i, u := range found.Units {
		res.Paths[i] = u.Name
	}
	for _, f := range found.Failures {
		res.Failures = append(res.Failures, UnitOutcome{Path: f.Path, Error: f.Err})
	}
	return res, nil
}

func GenerateActivity(ctx context.Context, input GenerateInput) (GenerateResult, error) {
	if deps == nil || deps.Processor == nil {
		return GenerateResult{}, errNoDependencies
	}
	p := deps.Processor
	res := GenerateResult{UnitOutcome: UnitOutcome{Path: input.Path}}

	u, err := p.Read(ctx, input.Path)
	if err != nil {
		res.Error = err.Error()
		return res, nil
	}
	if input.Incremental && p.Fresh(ctx, u) {
		p.Skip(ctx, u)
		res.Skipped = true
		return res, nil
	}

	ur, err := p.Process(ctx, u)
	if err != nil {
		res.Error = err.Error()
		return res, nil
	}
	res.Archetype = ur.Archetype.String()
	res.Output = ur.Output
	res.Renderer = ur.Render.Renderer
	res.FailedChecks = ur.FailedChecks()
	return res, nil
}
