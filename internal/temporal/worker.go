package temporal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

// StartWorker creates and starts a Temporal worker.
func StartWorker(c client.Client, taskQueue string) (worker.Worker, error) {
	w := worker.New(c, taskQueue, worker.Options{})

	w.RegisterWorkflow(BatchWorkflow)
	w.RegisterActivity(DiscoverActivity)
	w.RegisterActivity(GenerateActivity)

	if err := w.Start(); err != nil {
		return nil, fmt.Errorf("starting worker: %w", err)
	}
	return w, nil
}

// RunBatch starts BatchWorkflow on taskQueue and waits for its result.
func RunBatch(ctx context.Context, c client.Client, taskQueue string, input BatchInput) (*BatchOutput, error) {
	opts := client.StartWorkflowOptions{
		ID:        "ompcfg-batch-" + uuid.NewString(),
		TaskQueue: taskQueue,
	}
	run, err := c.ExecuteWorkflow(ctx, opts, BatchWorkflow, input)
	if err != nil {
		return nil, fmt.Errorf("start batch workflow: %w", err)
	}
	var out BatchOutput
	if err := run.Get(ctx, &out); err != nil {
		return nil, fmt.Errorf("batch workflow %s: %w", run.GetID(), err)
	}
	return &out, nil
}
