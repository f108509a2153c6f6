package temporal

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/efebarandurmaz/ompcfg/internal/batch"
	"github.com/efebarandurmaz/ompcfg/internal/cache"
	"github.com/efebarandurmaz/ompcfg/internal/discovery"
	"github.com/efebarandurmaz/ompcfg/internal/output"
)

func TestBatchWorkflow_TalliesOutcomes(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	env.OnActivity(DiscoverActivity, mock.Anything, mock.Anything).Return(DiscoverResult{
		Paths:    []string{"a.c", "b.c", "c.c", "d.c"},
		Failures: []UnitOutcome{{Path: "z.c", Error: "permission denied"}},
	}, nil)
	env.OnActivity(GenerateActivity, mock.Anything, mock.Anything).Return(
		func(_ context.Context, in GenerateInput) (GenerateResult, error) {
			res := GenerateResult{UnitOutcome: UnitOutcome{Path: in.Path}}
			switch in.Path {
			case "b.c":
				res.Error = "source unit is empty"
			case "c.c":
				res.Skipped = true
			default:
				res.Archetype = "parallel-for"
				res.Output = in.Path + ".dot"
			}
			return res, nil
		})

	env.ExecuteWorkflow(BatchWorkflow, BatchInput{Root: "/src", Incremental: true})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out BatchOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, 5, out.Discovered)
	assert.Equal(t, 2, out.Succeeded)
	assert.Equal(t, 2, out.Failed)
	assert.Equal(t, 1, out.Skipped)
	assert.True(t, out.OK())
	require.Len(t, out.Failures, 2)
	assert.Equal(t, "b.c", out.Failures[0].Path)
	assert.Equal(t, "z.c", out.Failures[1].Path)
}

func TestBatchWorkflow_BoundsConcurrentGenerates(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	paths := []string{"a.c", "b.c", "c.c", "d.c", "e.c", "f.c"}
	env.OnActivity(DiscoverActivity, mock.Anything, mock.Anything).Return(DiscoverResult{Paths: paths}, nil)

	var (
		mu       sync.Mutex
		inFlight int
		peak     int
	)
	env.OnActivity(GenerateActivity, mock.Anything, mock.Anything).Return(
		func(_ context.Context, in GenerateInput) (GenerateResult, error) {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			inFlight--
			mu.Unlock()
			return GenerateResult{UnitOutcome: UnitOutcome{Path: in.Path, Archetype: "basic"}}, nil
		})

	env.ExecuteWorkflow(BatchWorkflow, BatchInput{Root: "/src", Workers: 2})
	require.NoError(t, env.GetWorkflowError())

	var out BatchOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, len(paths), out.Succeeded)
	require.Len(t, out.Units, len(paths))
	assert.Equal(t, "a.c", out.Units[0].Path)
	assert.Equal(t, "f.c", out.Units[5].Path)
	assert.LessOrEqual(t, peak, 2)
}

func TestBatchWorkflow_DiscoveryFailure(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	env.OnActivity(DiscoverActivity, mock.Anything, mock.Anything).
		Return(DiscoverResult{}, temporal.NewNonRetryableApplicationError("root not found", "RootNotFound", nil))

	env.ExecuteWorkflow(BatchWorkflow, BatchInput{Root: "/missing"})
	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
}

func TestBatchWorkflow_NothingSucceeded(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	env.OnActivity(DiscoverActivity, mock.Anything, mock.Anything).Return(DiscoverResult{}, nil)

	env.ExecuteWorkflow(BatchWorkflow, BatchInput{Root: "/empty"})
	require.NoError(t, env.GetWorkflowError())

	var out BatchOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.False(t, out.OK())
}

func setup(t *testing.T) (root, out string) {
	t.Helper()
	root, out = t.TempDir(), t.TempDir()
	fs := afs.New()
	finder, err := discovery.NewFinder(fs, discovery.DefaultOptions())
	require.NoError(t, err)
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	SetDependencies(&Dependencies{
		Finder: finder,
		Processor: &batch.Processor{
			FS:     fs,
			Writer: output.NewWriter(fs, out, "_cfg.dot"),
			Cache:  store,
		},
	})
	t.Cleanup(func() { SetDependencies(nil) })
	return root, out
}

func TestActivities_NoDependencies(t *testing.T) {
	SetDependencies(nil)
	if _, err := DiscoverActivity(context.Background(), BatchInput{Root: "."}); err == nil {
		t.Error("expected error without dependencies")
	}
	if _, err := GenerateActivity(context.Background(), GenerateInput{Path: "x.c"}); err == nil {
		t.Error("expected error without dependencies")
	}
}

func TestDiscoverActivity(t *testing.T) {
	root, _ := setup(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "loop.c"), []byte("#pragma omp parallel for\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "plain.c"), []byte("int main(){}\n"), 0o644))

	res, err := DiscoverActivity(context.Background(), BatchInput{Root: root})
	require.NoError(t, err)
	require.Len(t, res.Paths, 1)
	assert.Equal(t, "loop.c", filepath.Base(res.Paths[0]))
}

func TestGenerateActivity(t *testing.T) {
	root, out := setup(t)
	path := filepath.Join(root, "loop.c")
	require.NoError(t, os.WriteFile(path, []byte("#pragma omp parallel\n#pragma omp for\n"), 0o644))

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(GenerateActivity)

	val, err := env.ExecuteActivity(GenerateActivity, GenerateInput{Path: path, Incremental: true})
	require.NoError(t, err)
	var res GenerateResult
	require.NoError(t, val.Get(&res))
	assert.Empty(t, res.Error)
	assert.False(t, res.Skipped)
	assert.Equal(t, "parallel-for", res.Archetype)
	assert.Equal(t, filepath.Join(out, "loop_cfg.dot"), res.Output)

	val, err = env.ExecuteActivity(GenerateActivity, GenerateInput{Path: path, Incremental: true})
	require.NoError(t, err)
	require.NoError(t, val.Get(&res))
	assert.True(t, res.Skipped, "unchanged unit should be skipped on the second run")
}

func TestGenerateActivity_UnitFailures(t *testing.T) {
	root, _ := setup(t)
	blank := filepath.Join(root, "blank.c")
	require.NoError(t, os.WriteFile(blank, []byte("  \n"), 0o644))

	res, err := GenerateActivity(context.Background(), GenerateInput{Path: filepath.Join(root, "missing.c")})
	require.NoError(t, err)
	assert.Contains(t, res.Error, "not found")

	res, err = GenerateActivity(context.Background(), GenerateInput{Path: blank})
	require.NoError(t, err)
	assert.Contains(t, res.Error, "empty")
}
