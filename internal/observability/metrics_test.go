package observability

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCounter(t *testing.T) {
	r := NewRegistry()
	c := r.Counter("test_total", "Test counter", nil)
	c.Inc()
	c.Add(2.5)
	c.Add(-1)

	if c.Value() != 3.5 {
		t.Fatalf("expected 3.5, got %f", c.Value())
	}
	if r.Counter("test_total", "Test counter", nil) != c {
		t.Error("same name and labels should return the same counter")
	}
	if r.Counter("test_total", "Test counter", map[string]string{"a": "b"}) == c {
		t.Error("different labels should return a different counter")
	}
}

func TestGauge(t *testing.T) {
	g := NewRegistry().Gauge("test_gauge", "Test gauge", nil)
	g.Set(10)
	g.Inc()
	g.Dec()
	g.Dec()
	if g.Value() != 9 {
		t.Fatalf("expected 9, got %f", g.Value())
	}
}

func TestHistogram_Buckets(t *testing.T) {
	r := NewRegistry()
	h := r.Histogram("latency_seconds", "Latency", nil, []float64{0.25, 1})
	h.Observe(0.125)
	h.Observe(0.25)
	h.Observe(0.5)
	h.Observe(3)

	var b strings.Builder
	r.WritePrometheus(&b)
	out := b.String()

	for _, want := range []string{
		`latency_seconds_bucket{le="0.25"} 2`,
		`latency_seconds_bucket{le="1"} 3`,
		`latency_seconds_bucket{le="+Inf"} 4`,
		`latency_seconds_sum 3.875`,
		`latency_seconds_count 4`,
		"# TYPE latency_seconds histogram",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWritePrometheus_FamilyHeaderOnce(t *testing.T) {
	r := NewRegistry()
	r.Counter("units_total", "Units", map[string]string{"archetype": "basic"}).Inc()
	r.Counter("units_total", "Units", map[string]string{"archetype": "sparselu"}).Add(2)

	var b strings.Builder
	r.WritePrometheus(&b)
	out := b.String()

	if n := strings.Count(out, "# TYPE units_total counter"); n != 1 {
		t.Errorf("expected one TYPE line, got %d", n)
	}
	if !strings.Contains(out, `units_total{archetype="basic"} 1`) ||
		!strings.Contains(out, `units_total{archetype="sparselu"} 2`) {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestFormatLabels_Sorted(t *testing.T) {
	got := formatLabels(map[string]string{"z": "1", "a": `q"x`})
	if got != `{a="q\"x",z="1"}` {
		t.Errorf("formatLabels = %s", got)
	}
	if formatLabels(nil) != "" {
		t.Error("nil labels should format empty")
	}
}

func TestUnitStats(t *testing.T) {
	s := NewUnitStats()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RecordUnit("task-parallel", 20*time.Millisecond)
		}()
	}
	wg.Wait()
	s.RecordRender("text")
	s.RecordRender("")
	s.Skipped.Inc()

	if s.Duration.Count() != 10 {
		t.Errorf("expected 10 observations, got %d", s.Duration.Count())
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body := w.Body.String()
	for _, want := range []string{
		`ompcfg_units_processed_total{archetype="task-parallel"} 10`,
		`ompcfg_renders_total{renderer="none"} 1`,
		`ompcfg_renders_total{renderer="text"} 1`,
		"ompcfg_units_skipped_total 1",
		"ompcfg_units_in_flight 0",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %s", ct)
	}
}
