package temporal

import (
	"fmt"
	"sort"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// BatchInput holds the workflow parameters.
type BatchInput struct {
	Root        string
	Incremental bool
	// Workers caps concurrent generate activities; zero or less means no cap.
	Workers int
}

// UnitOutcome is the per-unit line of a batch result.
type UnitOutcome struct {
	Path         string
	Archetype    string   `json:",omitempty"`
	Output       string   `json:",omitempty"`
	Renderer     string   `json:",omitempty"`
	FailedChecks []string `json:",omitempty"`
	Error        string   `json:",omitempty"`
}

// BatchOutput holds the workflow result.
type BatchOutput struct {
	Root       string
	Discovered int
	Succeeded  int
	Failed     int
	Skipped    int
	Units      []UnitOutcome
	Failures   []UnitOutcome
}

// OK reports whether at least one unit succeeded or was skipped as fresh.
func (o *BatchOutput) OK() bool {
	return o.Succeeded+o.Skipped > 0
}

// BatchWorkflow discovers units under a root and generates each one in its
// own activity. Unit failures are tallied; only discovery failure fails the
// workflow.
func BatchWorkflow(ctx workflow.Context, input BatchInput) (*BatchOutput, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	log := workflow.GetLogger(ctx)

	var found DiscoverResult
	if err := workflow.ExecuteActivity(ctx, DiscoverActivity, input).Get(ctx, &found); err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}

	out := &BatchOutput{
		Root:       input.Root,
		Discovered: len(found.Paths) + len(found.Failures),
		Failures:   append([]UnitOutcome(nil), found.Failures...),
		Failed:     len(found.Failures),
	}

	limit := input.Workers
	if limit <= 0 || limit > len(found.Paths) {
		limit = len(found.Paths)
	}
	results := make([]GenerateResult, len(found.Paths))
	errs := make([]error, len(found.Paths))
	sel := workflow.NewSelector(ctx)
	pending := 0
	for i, p := range found.Paths {
		if pending == limit {
			sel.Select(ctx)
			pending--
		}
		f := workflow.ExecuteActivity(ctx, GenerateActivity, GenerateInput{Path: p, Incremental: input.Incremental})
		sel.AddFuture(f, func(f workflow.Future) {
			errs[i] = f.Get(ctx, &results[i])
		})
		pending++
	}
	for ; pending > 0; pending-- {
		sel.Select(ctx)
	}

	for i, res := range results {
		if err := errs[i]; err != nil {
			log.Warn("generate activity failed", "path", found.Paths[i], "error", err)
			out.Failed++
			out.Failures = append(out.Failures, UnitOutcome{Path: found.Paths[i], Error: err.Error()})
			continue
		}
		switch {
		case res.Error != "":
			out.Failed++
			out.Failures = append(out.Failures, res.UnitOutcome)
		case res.Skipped:
			out.Skipped++
		default:
			out.Succeeded++
			out.Units = append(out.Units, res.UnitOutcome)
		}
	}

	sort.Slice(out.Failures, func(i, j int) bool { return out.Failures[i].Path < out.Failures[j].Path })
	log.Info("batch complete", "succeeded", out.Succeeded, "failed", out.Failed, "skipped", out.Skipped)
	return out, nil
}
