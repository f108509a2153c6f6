package cfg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/ompcfg/internal/pattern"
)

func TestEncodeDOT_Basic(t *testing.T) {
	want := `digraph "Basic_CFG" {
    rankdir=TB;
    node [shape=box, style=filled];

    BB_entry [label="Entry\nFunction Start", fillcolor=lightgray];
    BB_sequential [label="BB_1\nSequential code\nComputation", fillcolor=white];
    BB_exit [label="Exit\nFunction return", fillcolor=lightgray];

    BB_entry -> BB_sequential;
    BB_sequential -> BB_exit;
}
`
	assert.Equal(t, want, EncodeDOT(Synthesize(pattern.Basic)))
}

func TestEncodeDOT_EdgeAttributes(t *testing.T) {
	out := EncodeDOT(Synthesize(pattern.SparseLU))
	assert.Contains(t, out, `BB_k_continue -> BB_k_loop [label="k++"];`)
	assert.Contains(t, out, `BB_fwd_task -> BB_fwd_task [label="task instances", style=dashed, color=red];`)
	assert.Contains(t, out, `BB_fwd_task [label="BB_6\n#pragma omp task untied\nfwd() task creation", fillcolor=red];`)
}

func TestQuote_Escapes(t *testing.T) {
	assert.Equal(t, `"a\"b\\c\nd"`, quote("a\"b\\c\nd"))
	assert.Equal(t, "a\"b\\c\nd", unquote(quote("a\"b\\c\nd")))
	assert.Equal(t, "bare", unquote("bare"))
}

func TestParseDOT_RoundTrip(t *testing.T) {
	for _, a := range pattern.All() {
		t.Run(a.String(), func(t *testing.T) {
			g := Synthesize(a)
			parsed, err := ParseDOT(EncodeDOT(g))
			require.NoError(t, err)
			assert.Equal(t, g, parsed)
		})
	}
}

func TestParseDOT_ImplicitNodesAndChains(t *testing.T) {
	g, err := ParseDOT(`digraph x { a -> b -> c [style=dashed]; }`)
	require.NoError(t, err)
	assert.Equal(t, "x", g.Name)
	require.Len(t, g.Nodes, 3)
	require.Len(t, g.Edges, 2)
	assert.True(t, g.Edges[0].Repeat)
	assert.Equal(t, "b", g.Edges[1].From)
	assert.Equal(t, "c", g.Edges[1].To)
	_, ok := g.Entry()
	assert.False(t, ok)
}

func TestParseDOT_Errors(t *testing.T) {
	_, err := ParseDOT(`graph u { a -- b; }`)
	assert.ErrorIs(t, err, ErrNotDigraph)

	_, err = ParseDOT(`digraph {`)
	assert.Error(t, err)
}

func TestExportMermaid(t *testing.T) {
	out := ExportMermaid(Synthesize(pattern.TaskParallel))
	assert.True(t, strings.HasPrefix(out, "flowchart TB\n"))
	assert.Contains(t, out, `BB_task_create -.->|multiple tasks| BB_task_create`)
	assert.Contains(t, out, `BB_entry["Entry<br/>Function Start"]`)
	assert.Contains(t, out, "style BB_task_create fill:red")
}

func TestExportJSON(t *testing.T) {
	data, err := ExportJSON(Synthesize(pattern.Basic))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Basic_CFG"`)
	assert.Contains(t, string(data), `"entry": true`)
}

func TestExport(t *testing.T) {
	g := Synthesize(pattern.ParallelFor)
	tests := []struct {
		format, ext, prefix string
	}{
		{"", ".dot", `digraph "ParallelFor_CFG"`},
		{FormatDOT, ".dot", `digraph "ParallelFor_CFG"`},
		{FormatMermaid, ".mmd", "flowchart TB"},
		{FormatJSON, ".json", "{"},
	}
	for _, tt := range tests {
		text, ext, err := Export(g, tt.format)
		require.NoError(t, err, tt.format)
		assert.Equal(t, tt.ext, ext)
		assert.True(t, strings.HasPrefix(text, tt.prefix), "%s: %q", tt.format, text[:20])
	}

	_, _, err := Export(g, "svg")
	assert.Error(t, err)
}
