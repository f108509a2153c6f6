package observability

import (
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Registry holds metrics and writes them in the Prometheus text format.
// A metric is identified by its name plus labels.
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]metric
}

type metric interface {
	family() (name, help, kind string)
	write(w io.Writer)
}

type desc struct {
	name   string
	help   string
	labels map[string]string
}

func (d desc) key() string { return d.name + formatLabels(d.labels) }

// Counter is a monotonically increasing metric.
type Counter struct {
	desc
	mu    sync.Mutex
	value float64
}

// Gauge is a metric that can go up or down.
type Gauge struct {
	desc
	mu    sync.Mutex
	value float64
}

// Histogram tracks the distribution of observed values.
type Histogram struct {
	desc
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]metric)}
}

// get returns the metric registered under d's key, creating it with mk.
func (r *Registry) get(d desc, mk func() metric) metric {
	k := d.key()
	r.mu.RLock()
	m, ok := r.metrics[k]
	r.mu.RUnlock()
	if ok {
		return m
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.metrics[k]; ok {
		return m
	}
	m = mk()
	r.metrics[k] = m
	return m
}

// Counter returns the counter for name and labels, registering it on first use.
func (r *Registry) Counter(name, help string, labels map[string]string) *Counter {
	d := desc{name, help, labels}
	return r.get(d, func() metric { return &Counter{desc: d} }).(*Counter)
}

// Gauge returns the gauge for name and labels, registering it on first use.
func (r *Registry) Gauge(name, help string, labels map[string]string) *Gauge {
	d := desc{name, help, labels}
	return r.get(d, func() metric { return &Gauge{desc: d} }).(*Gauge)
}

// Histogram returns the histogram for name and labels. Nil buckets means
// DefaultBuckets.
func (r *Registry) Histogram(name, help string, labels map[string]string, buckets []float64) *Histogram {
	if buckets == nil {
		buckets = DefaultBuckets()
	}
	d := desc{name, help, labels}
	return r.get(d, func() metric {
		return &Histogram{desc: d, buckets: buckets, counts: make([]uint64, len(buckets))}
	}).(*Histogram)
}

// DefaultBuckets returns latency buckets in seconds.
func DefaultBuckets() []float64 {
	return []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
}

func (c *Counter) Inc() { c.Add(1) }

// Add increases the counter. Negative values are ignored.
func (c *Counter) Add(v float64) {
	if v < 0 {
		return
	}
	c.mu.Lock()
	c.value += v
	c.mu.Unlock()
}

func (c *Counter) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (g *Gauge) Set(v float64) {
	g.mu.Lock()
	g.value = v
	g.mu.Unlock()
}

func (g *Gauge) Add(v float64) {
	g.mu.Lock()
	g.value += v
	g.mu.Unlock()
}

func (g *Gauge) Inc() { g.Add(1) }
func (g *Gauge) Dec() { g.Add(-1) }

func (g *Gauge) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// Observe records v in the first bucket whose bound is at least v.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum += v
	h.count++
	if i := sort.SearchFloat64s(h.buckets, v); i < len(h.buckets) {
		h.counts[i]++
	}
}

// ObserveDuration records the seconds elapsed since start.
func (h *Histogram) ObserveDuration(start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func (c *Counter) family() (string, string, string)   { return c.name, c.help, "counter" }
func (g *Gauge) family() (string, string, string)     { return g.name, g.help, "gauge" }
func (h *Histogram) family() (string, string, string) { return h.name, h.help, "histogram" }

func (c *Counter) write(w io.Writer) {
	io.WriteString(w, c.key()+" "+formatFloat(c.Value())+"\n")
}

func (g *Gauge) write(w io.Writer) {
	io.WriteString(w, g.key()+" "+formatFloat(g.Value())+"\n")
}

func (h *Histogram) write(w io.Writer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var cumulative uint64
	for i, bound := range h.buckets {
		cumulative += h.counts[i]
		io.WriteString(w, h.name+"_bucket"+formatLabels(withLabel(h.labels, "le", formatFloat(bound)))+" "+strconv.FormatUint(cumulative, 10)+"\n")
	}
	io.WriteString(w, h.name+"_bucket"+formatLabels(withLabel(h.labels, "le", "+Inf"))+" "+strconv.FormatUint(h.count, 10)+"\n")
	io.WriteString(w, h.name+"_sum"+formatLabels(h.labels)+" "+formatFloat(h.sum)+"\n")
	io.WriteString(w, h.name+"_count"+formatLabels(h.labels)+" "+strconv.FormatUint(h.count, 10)+"\n")
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		r.WritePrometheus(w)
	})
}

// WritePrometheus writes every metric grouped by family, sorted by key.
func (r *Registry) WritePrometheus(w io.Writer) {
	r.mu.RLock()
	keys := make([]string, 0, len(r.metrics))
	for k := range r.metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ms := make([]metric, len(keys))
	for i, k := range keys {
		ms[i] = r.metrics[k]
	}
	r.mu.RUnlock()

	seen := map[string]bool{}
	for _, m := range ms {
		name, help, kind := m.family()
		if !seen[name] {
			seen[name] = true
			io.WriteString(w, "# HELP "+name+" "+help+"\n")
			io.WriteString(w, "# TYPE "+name+" "+kind+"\n")
		}
		m.write(w)
	}
}

// formatLabels renders labels sorted by name.
func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = k + "=" + strconv.Quote(labels[k])
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func withLabel(labels map[string]string, k, v string) map[string]string {
	out := make(map[string]string, len(labels)+1)
	for lk, lv := range labels {
		out[lk] = lv
	}
	out[k] = v
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// UnitStats are the counters a long-running worker exports for the units
// it processes.
type UnitStats struct {
	Registry *Registry

	InFlight *Gauge
	Skipped  *Counter
	Failed   *Counter
	Duration *Histogram
}

// NewUnitStats registers the unit metrics on a fresh registry.
func NewUnitStats() *UnitStats {
	r := NewRegistry()
	return &UnitStats{
		Registry: r,
		InFlight: r.Gauge("ompcfg_units_in_flight", "Units currently being processed", nil),
		Skipped:  r.Counter("ompcfg_units_skipped_total", "Units skipped as unchanged", nil),
		Failed:   r.Counter("ompcfg_unit_failures_total", "Units that could not be processed", nil),
		Duration: r.Histogram("ompcfg_unit_duration_seconds", "Time to process one unit", nil, nil),
	}
}

// RecordUnit counts a processed unit under its archetype.
func (s *UnitStats) RecordUnit(archetype string, d time.Duration) {
	s.Registry.Counter("ompcfg_units_processed_total", "Units processed by archetype",
		map[string]string{"archetype": archetype}).Inc()
	s.Duration.Observe(d.Seconds())
}

// RecordRender counts which renderer produced the artifact; an empty name
// counts a chain where every renderer failed.
func (s *UnitStats) RecordRender(renderer string) {
	if renderer == "" {
		renderer = "none"
	}
	s.Registry.Counter("ompcfg_renders_total", "Render outcomes by renderer",
		map[string]string{"renderer": renderer}).Inc()
}

// Handler serves the registry.
func (s *UnitStats) Handler() http.Handler { return s.Registry.Handler() }
