package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/efebarandurmaz/ompcfg/internal/cfg"
	"github.com/efebarandurmaz/ompcfg/internal/pattern"
)

func TestInspect_Templates(t *testing.T) {
	tests := []struct {
		archetype pattern.Archetype
		selfLoops int
		cycles    int
	}{
		{pattern.SparseLU, 3, 1},
		{pattern.TaskParallel, 1, 0},
		{pattern.ParallelFor, 1, 0},
		{pattern.Basic, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.archetype.String(), func(t *testing.T) {
			s := Inspect(cfg.Synthesize(tt.archetype))
			assert.True(t, s.EntryReachesExit)
			assert.Empty(t, s.Unreachable)
			assert.Empty(t, s.DeadEnds)
			assert.Equal(t, tt.selfLoops, s.SelfLoops)
			assert.Equal(t, tt.cycles, s.Cycles)
		})
	}
}

func TestInspect_Disconnected(t *testing.T) {
	g := &cfg.Graph{
		Nodes: []cfg.Node{
			{ID: cfg.EntryID, Entry: true},
			{ID: "a"},
			{ID: "orphan"},
			{ID: "sink"},
			{ID: cfg.ExitID, Exit: true},
		},
		Edges: []cfg.Edge{
			{From: cfg.EntryID, To: "a"},
			{From: "a", To: cfg.ExitID},
			{From: "a", To: "sink"},
			{From: "orphan", To: "a"},
		},
	}
	s := Inspect(g)
	assert.True(t, s.EntryReachesExit)
	assert.Equal(t, []string{"orphan"}, s.Unreachable)
	assert.Equal(t, []string{"sink"}, s.DeadEnds)
}

func TestInspect_MissingTerminals(t *testing.T) {
	g := &cfg.Graph{Nodes: []cfg.Node{{ID: "a"}}, Edges: []cfg.Edge{{From: "a", To: "a"}}}
	s := Inspect(g)
	assert.False(t, s.EntryReachesExit)
	assert.Equal(t, 1, s.SelfLoops)
}
