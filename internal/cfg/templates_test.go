package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/ompcfg/internal/pattern"
)

func TestSynthesize_Shapes(t *testing.T) {
	tests := []struct {
		archetype pattern.Archetype
		nodes     int
		edges     int
		selfLoops int
	}{
		{pattern.SparseLU, 15, 18, 3},
		{pattern.TaskParallel, 8, 8, 1},
		{pattern.ParallelFor, 7, 7, 1},
		{pattern.Basic, 3, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.archetype.String(), func(t *testing.T) {
			g := Synthesize(tt.archetype)
			assert.Equal(t, tt.archetype.Title(), g.Name)
			assert.Len(t, g.Nodes, tt.nodes)
			assert.Len(t, g.Edges, tt.edges)
			assert.Len(t, g.SelfLoops(), tt.selfLoops)

			entries, exits := g.CountEntries()
			assert.Equal(t, 1, entries)
			assert.Equal(t, 1, exits)

			for _, e := range g.Edges {
				_, ok := g.Node(e.From)
				assert.True(t, ok, "edge source %s", e.From)
				_, ok = g.Node(e.To)
				assert.True(t, ok, "edge target %s", e.To)
			}
		})
	}
}

func TestSynthesize_UnknownFallsBackToBasic(t *testing.T) {
	g := Synthesize(pattern.Archetype("bogus"))
	assert.Equal(t, Synthesize(pattern.Basic), g)
}

func TestSynthesize_TaskCreateSelfLoop(t *testing.T) {
	g := Synthesize(pattern.TaskParallel)
	loops := g.SelfLoops()
	require.Len(t, loops, 1)
	assert.Equal(t, "BB_task_create", loops[0].From)
	assert.True(t, loops[0].Repeat)
}

func TestSynthesize_SparseLUTaskInstances(t *testing.T) {
	g := Synthesize(pattern.SparseLU)
	var ids []string
	for _, e := range g.SelfLoops() {
		assert.True(t, e.Repeat)
		assert.Equal(t, "task instances", e.Label)
		n, ok := g.Node(e.From)
		require.True(t, ok)
		assert.Equal(t, KindTask, n.Kind)
		ids = append(ids, e.From)
	}
	assert.Equal(t, []string{"BB_fwd_task", "BB_bdiv_task", "BB_bmod_task"}, ids)

	assert.Contains(t, g.Successors("BB_k_continue"), "BB_k_loop")
	assert.Contains(t, g.Successors("BB_k_loop"), "BB_parallel_end")
}

func TestSynthesize_Fresh(t *testing.T) {
	a := Synthesize(pattern.ParallelFor)
	a.Nodes[0].Label = "mutated"
	a.Edges = a.Edges[:1]

	b := Synthesize(pattern.ParallelFor)
	assert.Equal(t, "Entry\nFunction Start", b.Nodes[0].Label)
	assert.Len(t, b.Edges, 7)
}

func TestFillColor_RoundTrip(t *testing.T) {
	for _, k := range []NodeKind{KindTerminal, KindPlain, KindParallel, KindTask, KindSync, KindLoop} {
		assert.Equal(t, k, KindForColor(FillColor(k)))
	}
	assert.Equal(t, KindPlain, KindForColor("chartreuse"))
}
