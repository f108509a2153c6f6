package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/ompcfg/internal/pattern"
)

const taskSource = `int main() {
#pragma omp parallel
#pragma omp for
  for (int i = 0; i < n; i++) {
#pragma omp task untied
    work(i);
  }
}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("OMPCFG_RENDER_ORDER", "text")
	t.Setenv("OMPCFG_LOG_LEVEL", "error")
	t.Setenv("OMPCFG_CACHE_PATH", filepath.Join(t.TempDir(), "cache.db"))

	a := &app{}
	cmd := newRootCmd(a)
	t.Cleanup(func() { a.close(context.Background()) })
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGenerate(t *testing.T) {
	src := writeSource(t, t.TempDir(), "tp.c", taskSource)
	outDir := t.TempDir()

	stdout, err := execute(t, "generate", "--input", src, "--output", outDir)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Processing file: "+src)
	assert.Contains(t, stdout, "Target hardware: 8 cores, x86_64")
	assert.Contains(t, stdout, `"untied": true`)
	assert.Contains(t, stdout, "task-parallel")
	assert.Contains(t, stdout, "tasks_detected")

	dot, err := os.ReadFile(filepath.Join(outDir, "tp_cfg.dot"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(dot), `digraph "TaskParallel_CFG"`))
	assert.FileExists(t, filepath.Join(outDir, "tp_cfg.txt"))
}

func TestGenerate_JSON(t *testing.T) {
	src := writeSource(t, t.TempDir(), "loop.c", "#pragma omp parallel\n#pragma omp for\n")

	stdout, err := execute(t, "generate", "--input", src, "--output", t.TempDir(), "--json", "--render=false")
	require.NoError(t, err)

	var got struct {
		Archetype  string          `json:"archetype"`
		Output     string          `json:"output"`
		Validation map[string]bool `json:"validation"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "parallel-for", got.Archetype)
	assert.True(t, strings.HasSuffix(got.Output, "loop_cfg.dot"))
	assert.False(t, got.Validation["tasks_detected"])
	assert.True(t, got.Validation["has_entry_exit"])
}

func TestGenerate_BadInput(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "generate", "--input", filepath.Join(dir, "missing.c"), "--output", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	blank := writeSource(t, dir, "blank.c", "\n   \n")
	_, err = execute(t, "generate", "--input", blank, "--output", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}

func TestInventory_YAML(t *testing.T) {
	src := writeSource(t, t.TempDir(), "tp.c", taskSource)

	stdout, err := execute(t, "inventory", "--input", src, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "parallel_regions:")
	assert.Contains(t, stdout, "untied: true")

	_, err = execute(t, "inventory", "--input", src, "--format", "toml")
	assert.Error(t, err)
}

func TestPrompt(t *testing.T) {
	src := writeSource(t, t.TempDir(), "tp.c", taskSource)

	stdout, err := execute(t, "prompt", "--input", src, "--cores", "64", "--arch", "arm64")
	require.NoError(t, err)
	assert.Contains(t, stdout, "64")
	assert.Contains(t, stdout, "arm64")
	assert.Contains(t, stdout, "#pragma omp task untied")
}

func TestValidate(t *testing.T) {
	src := writeSource(t, t.TempDir(), "tp.c", taskSource)
	outDir := t.TempDir()
	_, err := execute(t, "generate", "--input", src, "--output", outDir, "--render=false")
	require.NoError(t, err)

	stdout, err := execute(t, "validate", "--dot", filepath.Join(outDir, "tp_cfg.dot"), "--json", "--strict")
	require.NoError(t, err)

	var got validateOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.True(t, got.Report.Passed())
	require.NotNil(t, got.Structure)
	assert.True(t, got.Structure.EntryReachesExit)
	assert.Equal(t, 1, got.Structure.SelfLoops)
}

func TestValidate_Unparseable(t *testing.T) {
	bad := writeSource(t, t.TempDir(), "bad.dot", "graph { a -- b ")

	stdout, err := execute(t, "validate", "--dot", bad)
	require.NoError(t, err, "failing checks are not fatal without --strict")
	assert.Contains(t, stdout, "valid_dot_syntax")

	_, err = execute(t, "validate", "--dot", bad, "--strict")
	assert.ErrorIs(t, err, errChecksFailed)
}

func TestRender(t *testing.T) {
	src := writeSource(t, t.TempDir(), "tp.c", taskSource)
	outDir := t.TempDir()
	_, err := execute(t, "generate", "--input", src, "--output", outDir, "--render=false")
	require.NoError(t, err)

	base := filepath.Join(t.TempDir(), "sketch")
	stdout, err := execute(t, "render", "--dot", filepath.Join(outDir, "tp_cfg.dot"), "--output", base)
	require.NoError(t, err)
	assert.Contains(t, stdout, "text:")
	assert.FileExists(t, base+".txt")
}

func TestBatch(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "a/tp.c", taskSource)
	writeSource(t, root, "b/loop.c", "#pragma omp parallel\n#pragma omp for\n")
	writeSource(t, root, "b/plain.c", "int main(void) { return 0; }\n")
	outDir := t.TempDir()

	stdout, err := execute(t, "batch", "--root", root, "--output", outDir, "--json", "--workers", "2")
	require.NoError(t, err)

	var m struct {
		Discovered int `json:"discovered"`
		Succeeded  int `json:"succeeded"`
		Failed     int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &m))
	assert.Equal(t, 2, m.Discovered)
	assert.Equal(t, 2, m.Succeeded)
	assert.Zero(t, m.Failed)
	assert.FileExists(t, filepath.Join(outDir, "tp_cfg.dot"))
	assert.FileExists(t, filepath.Join(outDir, "loop_cfg.dot"))
}

func TestBatch_NothingGenerated(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "plain.c", "int main(void) { return 0; }\n")

	_, err := execute(t, "batch", "--root", root, "--output", t.TempDir())
	assert.ErrorIs(t, err, errNothingGenerated)
}

func TestArchetypes(t *testing.T) {
	stdout, err := execute(t, "archetypes")
	require.NoError(t, err)
	for _, name := range []string{"sparselu", "task-parallel", "parallel-for", "basic"} {
		assert.Contains(t, stdout, name)
	}
}

func TestArchetypes_OneTemplate(t *testing.T) {
	stdout, err := execute(t, "archetypes", "Task_Parallel")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, `digraph "TaskParallel_CFG"`))

	stdout, err = execute(t, "archetypes", "sparselu", "--format", "mermaid")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "flowchart TB"))
	assert.Contains(t, stdout, "BB_fwd_task -.->|task instances| BB_fwd_task")

	_, err = execute(t, "archetypes", "pipeline")
	assert.ErrorIs(t, err, pattern.ErrUnknownArchetype)
}

func TestRender_Export(t *testing.T) {
	src := writeSource(t, t.TempDir(), "loop.c", "#pragma omp parallel\n#pragma omp for\n")
	outDir := t.TempDir()
	_, err := execute(t, "generate", "--input", src, "--output", outDir, "--render=false")
	require.NoError(t, err)
	dot := filepath.Join(outDir, "loop_cfg.dot")

	base := filepath.Join(t.TempDir(), "sketch")
	stdout, err := execute(t, "render", "--dot", dot, "--output", base, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, stdout, base+".json")
	data, err := os.ReadFile(base + ".json")
	require.NoError(t, err)
	var g struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(data, &g))
	assert.Equal(t, "ParallelFor_CFG", g.Name)

	_, err = execute(t, "render", "--dot", dot, "--output", base, "--format", "mermaid")
	require.NoError(t, err)
	assert.FileExists(t, base+".mmd")

	_, err = execute(t, "render", "--dot", dot, "--format", "svg")
	assert.Error(t, err)
}

func TestApp_ClosesTracingOnExit(t *testing.T) {
	t.Setenv("OMPCFG_LOG_LEVEL", "error")
	a := &app{}
	cmd := newRootCmd(a)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"archetypes"})
	require.NoError(t, cmd.Execute())

	assert.Len(t, a.closers, 1)
	require.NoError(t, a.close(context.Background()))
	assert.Empty(t, a.closers)
}
