package metrics

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// BatchMetrics collects statistics for a batch run. Record methods are safe
// for concurrent use.
type BatchMetrics struct {
	mu sync.Mutex

	Root       string         `json:"root"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitempty"`
	Duration   time.Duration  `json:"-"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	Discovered int            `json:"discovered"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	Skipped    int            `json:"skipped"`
	Archetypes map[string]int `json:"archetypes"`
	Renderers  map[string]int `json:"renderers"`
	Units      []UnitMetrics  `json:"units"`
	Failures   []Failure      `json:"failures,omitempty"`
	// Pruned lists cached units that disappeared since the last run.
	Pruned []string `json:"pruned,omitempty"`
}

// UnitMetrics records one processed unit.
type UnitMetrics struct {
	Name      string        `json:"name"`
	Archetype string        `json:"archetype"`
	Output    string        `json:"output"`
	Renderer  string        `json:"renderer,omitempty"`
	Failed    []string      `json:"failed_checks,omitempty"`
	Duration  time.Duration `json:"-"`
	// DurationMs mirrors Duration for JSON output.
	DurationMs int64 `json:"duration_ms"`
}

// Failure records a unit that could not be processed.
type Failure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// New starts tracking a batch run over root.
func New(root string) *BatchMetrics {
	return &BatchMetrics{
		Root:       root,
		StartedAt:  time.Now(),
		Archetypes: map[string]int{},
		Renderers:  map[string]int{},
	}
}

// SetDiscovered records how many units discovery returned.
func (m *BatchMetrics) SetDiscovered(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Discovered = n
}

// AddSuccess records a processed unit.
func (m *BatchMetrics) AddSuccess(u UnitMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Succeeded++
	u.DurationMs = u.Duration.Milliseconds()
	m.Archetypes[u.Archetype]++
	if u.Renderer != "" {
		m.Renderers[u.Renderer]++
	}
	m.Units = append(m.Units, u)
}

// AddFailure records a unit that failed.
func (m *BatchMetrics) AddFailure(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failed++
	m.Failures = append(m.Failures, Failure{Name: name, Error: err.Error()})
}

// AddSkipped records a unit left untouched by an incremental run.
func (m *BatchMetrics) AddSkipped(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Skipped++
}

// AddPruned records a cached unit whose source no longer exists.
func (m *BatchMetrics) AddPruned(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pruned = append(m.Pruned, name)
}

// Finish marks the run as complete and orders units and failures by name.
func (m *BatchMetrics) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FinishedAt = time.Now()
	m.Duration = m.FinishedAt.Sub(m.StartedAt)
	m.DurationMs = m.Duration.Milliseconds()
	sort.Slice(m.Units, func(i, j int) bool { return m.Units[i].Name < m.Units[j].Name })
	sort.Slice(m.Failures, func(i, j int) bool { return m.Failures[i].Name < m.Failures[j].Name })
	sort.Strings(m.Pruned)
}

// OK reports whether at least one unit succeeded or was skipped as fresh.
func (m *BatchMetrics) OK() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Succeeded+m.Skipped > 0
}

// PrintSummary writes a human-readable summary.
func (m *BatchMetrics) PrintSummary(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fmt.Fprintf(w, "\n╔══════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║          OMPCFG BATCH REPORT         ║\n")
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ Duration:    %-23s║\n", m.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "║ Discovered:  %-23d║\n", m.Discovered)
	fmt.Fprintf(w, "║ Succeeded:   %-23d║\n", m.Succeeded)
	fmt.Fprintf(w, "║ Failed:      %-23d║\n", m.Failed)
	fmt.Fprintf(w, "║ Skipped:     %-23d║\n", m.Skipped)
	if len(m.Archetypes) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ ARCHETYPES\n")
		for _, k := range sortedKeys(m.Archetypes) {
			fmt.Fprintf(w, "║   %-16s %d\n", k, m.Archetypes[k])
		}
	}
	if len(m.Renderers) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ RENDERERS\n")
		for _, k := range sortedKeys(m.Renderers) {
			fmt.Fprintf(w, "║   %-16s %d\n", k, m.Renderers[k])
		}
	}
	if len(m.Pruned) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ PRUNED\n")
		for _, name := range m.Pruned {
			fmt.Fprintf(w, "║   • %s\n", name)
		}
	}
	if len(m.Failures) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ FAILURES\n")
		for _, f := range m.Failures {
			fmt.Fprintf(w, "║   • %s: %s\n", f.Name, f.Error)
		}
	}
	fmt.Fprintf(w, "╚══════════════════════════════════════╝\n")
}

// JSON returns the metrics as formatted JSON.
func (m *BatchMetrics) JSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return json.MarshalIndent(m, "", "  ")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
