package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/ompcfg/internal/cfg"
	"github.com/efebarandurmaz/ompcfg/internal/pattern"
)

func validateArchetype(a pattern.Archetype) Report {
	g := cfg.Synthesize(a)
	return Validate(g, cfg.EncodeDOT(g))
}

func TestValidate_AllPredicatesPresent(t *testing.T) {
	for _, a := range pattern.All() {
		r := validateArchetype(a)
		assert.Len(t, r, len(Predicates), a.String())
		for _, p := range Predicates {
			_, ok := r[p]
			assert.True(t, ok, "%s missing %s", a, p)
		}
	}
}

func TestValidate_EmptySource(t *testing.T) {
	r := validateArchetype(pattern.Basic)
	assert.True(t, r[HasEdges])
	assert.False(t, r[TasksDetected])
	assert.False(t, r[ParallelRegionsDetected])
	assert.True(t, r[HasEntryExit])
	assert.True(t, r[ValidSyntax])
	assert.False(t, r.Passed())
}

func TestValidate_ParallelArchetypes(t *testing.T) {
	tests := []struct {
		archetype pattern.Archetype
		tasks     bool
	}{
		{pattern.SparseLU, true},
		{pattern.TaskParallel, true},
		{pattern.ParallelFor, false},
	}
	for _, tt := range tests {
		t.Run(tt.archetype.String(), func(t *testing.T) {
			r := validateArchetype(tt.archetype)
			assert.True(t, r[ParallelRegionsDetected])
			assert.True(t, r[HasEdges])
			assert.True(t, r[SyncPointsDetected])
			assert.Equal(t, tt.tasks, r[TasksDetected])
		})
	}
}

func TestValidate_SyntaxForEveryTemplate(t *testing.T) {
	for _, a := range pattern.All() {
		assert.True(t, validateArchetype(a)[ValidSyntax], a.String())
	}
}

func TestValidate_TaskParallelPasses(t *testing.T) {
	r := validateArchetype(pattern.TaskParallel)
	assert.True(t, r.Passed(), "failed: %v", r.Failed())
	assert.Empty(t, r.Failed())
}

func TestValidate_TextOnly(t *testing.T) {
	text := "digraph x {\n BB_entry -> BB_exit;\n}\n"
	r := Validate(nil, text)
	assert.True(t, r[HasEntryExit])
	assert.True(t, r[ValidSyntax])
	assert.True(t, r[HasEdges])
	assert.False(t, r[TasksDetected])

	r = Validate(nil, "digraph x { a; }")
	assert.False(t, r[HasEntryExit])
	assert.False(t, r[HasEdges])
}

func TestValidate_EntryByTag(t *testing.T) {
	g := &cfg.Graph{Nodes: []cfg.Node{{ID: "start", Entry: true}, {ID: "end"}}}
	r := Validate(g, "digraph g { start -> end; Exit }")
	assert.False(t, r[HasEntryExit])

	g.Nodes[1].Exit = true
	r = Validate(g, "digraph g { start -> end; }")
	assert.True(t, r[HasEntryExit])
}

func TestValidate_CaseInsensitiveKeywords(t *testing.T) {
	r := Validate(nil, "digraph g { PARALLEL TASK BARRIER }")
	assert.True(t, r[ParallelRegionsDetected])
	assert.True(t, r[TasksDetected])
	assert.True(t, r[SyncPointsDetected])
}

func TestValidSyntax(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"balanced", "digraph g { a -> b; }", true},
		{"leading space", "  \ndigraph g { }", true},
		{"wrong keyword", "graph g { a -- b; }", false},
		{"unclosed", "digraph g { a -> b;", false},
		{"extra close", "digraph g { } }", false},
		{"close before open", "digraph g } {", false},
		{"brace in label", `digraph g { a [label="{"]; }`, true},
		{"escaped quote", `digraph g { a [label="say \"}\""]; }`, true},
		{"open quote", `digraph g { a [label="x]; }`, false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validSyntax(tt.in))
		})
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	g := cfg.Synthesize(pattern.SparseLU)
	before := cfg.EncodeDOT(g)
	Validate(g, before)
	Inspect(g)
	require.Equal(t, before, cfg.EncodeDOT(g))
}

func TestReport_FailedOrder(t *testing.T) {
	r := Report{}
	for _, p := range Predicates {
		r[p] = true
	}
	r[HasEdges] = false
	r[HasEntryExit] = false
	assert.Equal(t, []Predicate{HasEntryExit, HasEdges}, r.Failed())
}
