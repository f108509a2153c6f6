package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/ompcfg/internal/cfg"
	"github.com/efebarandurmaz/ompcfg/internal/construct"
	"github.com/efebarandurmaz/ompcfg/internal/pattern"
	"github.com/efebarandurmaz/ompcfg/internal/validator"
)

func TestPrintInventory(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, nil)

	require.NoError(t, p.PrintInventory(construct.NewInventory()))
	assert.Contains(t, buf.String(), "No OpenMP constructs found")

	buf.Reset()
	inv := construct.Extract("#pragma omp parallel\n#pragma omp task untied\n")
	require.NoError(t, p.PrintInventory(inv))
	out := buf.String()
	assert.Contains(t, out, `"parallel_regions"`)
	assert.Contains(t, out, `"untied": true`)
}

func TestPrintReport(t *testing.T) {
	g := cfg.Synthesize(pattern.ParallelFor)
	r := validator.Validate(g, cfg.EncodeDOT(g))

	var buf bytes.Buffer
	ok := New(&buf, nil).PrintReport(r)

	out := buf.String()
	assert.False(t, ok, "parallel-for has no tasks")
	assert.Contains(t, out, "tasks_detected: ✗ FAIL")
	assert.Contains(t, out, "has_entry_exit: ✓ PASS")
	assert.Contains(t, out, "continuing")

	// predicates print in report order
	last := -1
	for _, pred := range validator.Predicates {
		i := strings.Index(out, string(pred)+":")
		require.GreaterOrEqual(t, i, 0, pred)
		assert.Greater(t, i, last, pred)
		last = i
	}
}

func TestPrintStructure(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, nil).PrintStructure(validator.Inspect(cfg.Synthesize(pattern.SparseLU)))

	out := buf.String()
	assert.Contains(t, out, "entry_reaches_exit: ✓ PASS")
	assert.Contains(t, out, "self loops: 3")
	assert.NotContains(t, out, "unreachable")
}

func TestPrintArchetype(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, DefaultStyles()).PrintArchetype(pattern.TaskParallel)
	assert.Contains(t, buf.String(), "TaskParallel_CFG")
}
