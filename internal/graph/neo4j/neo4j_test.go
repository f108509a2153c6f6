package neo4j

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/ompcfg/internal/cfg"
	"github.com/efebarandurmaz/ompcfg/internal/pattern"
)

type fakeRecord map[string]any

func (f fakeRecord) Get(key string) (any, bool) {
	v, ok := f[key]
	return v, ok
}

func TestBlockRows(t *testing.T) {
	g := cfg.Synthesize(pattern.Basic)
	rows := blockRows("src/a.c", g)
	require.Len(t, rows, 3)
	assert.Equal(t, "src/a.c#BB_entry", rows[0]["key"])
	assert.Equal(t, true, rows[0]["entry"])
	assert.Equal(t, "terminal", rows[0]["kind"])
	assert.Equal(t, int64(2), rows[2]["seq"])
	assert.Equal(t, true, rows[2]["exit"])
}

func TestEdgeRows(t *testing.T) {
	g := cfg.Synthesize(pattern.TaskParallel)
	rows := edgeRows("tp.c", g)
	require.Len(t, rows, len(g.Edges))

	var loop map[string]any
	for _, r := range rows {
		if r["from"] == r["to"] {
			loop = r
		}
	}
	require.NotNil(t, loop)
	assert.Equal(t, "tp.c#BB_task_create", loop["from"])
	assert.Equal(t, true, loop["repeat"])
	assert.Equal(t, "multiple tasks", loop["label"])
}

func TestBlockKey_ScopesByUnit(t *testing.T) {
	assert.NotEqual(t, blockKey("a.c", "BB_entry"), blockKey("b.c", "BB_entry"))
}

func TestRecordValues(t *testing.T) {
	rec := fakeRecord{"id": "BB_1", "entry": true, "label": nil}
	assert.Equal(t, "BB_1", stringValue(rec, "id"))
	assert.Equal(t, "", stringValue(rec, "label"))
	assert.Equal(t, "", stringValue(rec, "missing"))
	assert.True(t, boolValue(rec, "entry"))
	assert.False(t, boolValue(rec, "exit"))
}
