// Package server exposes the worker's health probes and coordinates
// graceful shutdown.
package server

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/viant/afs"
)

// Status is the state reported by a probe or check.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check is the result of one named dependency check.
type Check struct {
	Name    string            `json:"name"`
	Status  Status            `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Response is the body of every probe.
type Response struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
	Checks    []Check   `json:"checks,omitempty"`
}

// Checker runs one dependency check.
type Checker func(ctx context.Context) Check

// Health serves /health, /ready and /live plus the Kubernetes z-aliases.
type Health struct {
	mu      sync.RWMutex
	checks  map[string]Checker
	version string
	ready   bool
	live    bool
	mounts  map[string]http.Handler
	srv     *http.Server
}

// NewHealth returns a live but not yet ready health server.
func NewHealth(version string) *Health {
	return &Health{
		checks:  make(map[string]Checker),
		version: version,
		live:    true,
	}
}

// Register adds or replaces a named check.
func (h *Health) Register(name string, c Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = c
}

func (h *Health) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

func (h *Health) SetLive(live bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = live
}

// Mount serves an extra handler, such as /metrics, next to the probes.
// Mounts must be added before Handler or ListenAndServe is called.
func (h *Health) Mount(path string, handler http.Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mounts == nil {
		h.mounts = map[string]http.Handler{}
	}
	h.mounts[path] = handler
}

// Handler returns the probe mux.
func (h *Health) Handler() http.Handler {
	mux := http.NewServeMux()
	h.mu.RLock()
	for p, handler := range h.mounts {
		mux.Handle(p, handler)
	}
	h.mu.RUnlock()
	for _, p := range []string{"/health", "/healthz"} {
		mux.HandleFunc(p, h.handleHealth)
	}
	for _, p := range []string{"/ready", "/readyz"} {
		mux.HandleFunc(p, h.probe(func() bool { return h.ready }))
	}
	for _, p := range []string{"/live", "/livez"} {
		mux.HandleFunc(p, h.probe(func() bool { return h.live }))
	}
	return mux
}

// ListenAndServe blocks serving probes on addr until Shutdown.
func (h *Health) ListenAndServe(addr string) error {
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      h.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	h.mu.Lock()
	h.srv = srv
	h.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the listener started by ListenAndServe.
func (h *Health) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	srv := h.srv
	h.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Run executes every registered check and folds them into one status.
// Checks are returned sorted by name.
func (h *Health) Run(ctx context.Context) Response {
	h.mu.RLock()
	checks := make(map[string]Checker, len(h.checks))
	for k, v := range h.checks {
		checks[k] = v
	}
	h.mu.RUnlock()

	resp := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Checks:    make([]Check, 0, len(checks)),
	}
	for name, fn := range checks {
		c := fn(ctx)
		c.Name = name
		resp.Checks = append(resp.Checks, c)
		switch {
		case c.Status == StatusUnhealthy:
			resp.Status = StatusUnhealthy
		case c.Status == StatusDegraded && resp.Status == StatusHealthy:
			resp.Status = StatusDegraded
		}
	}
	sort.Slice(resp.Checks, func(i, j int) bool { return resp.Checks[i].Name < resp.Checks[j].Name })
	return resp
}

func (h *Health) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := h.Run(ctx)
	code := http.StatusOK
	if resp.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func (h *Health) probe(state func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		h.mu.RLock()
		ok := state()
		h.mu.RUnlock()

		resp := Response{Status: StatusHealthy, Timestamp: time.Now().UTC()}
		code := http.StatusOK
		if !ok {
			resp.Status = StatusUnhealthy
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// Dependency wraps a connectivity probe. A failing required dependency is
// unhealthy; an optional one only degrades the service.
func Dependency(label string, required bool, ping func(ctx context.Context) error) Checker {
	return func(ctx context.Context) Check {
		if err := ping(ctx); err != nil {
			status := StatusDegraded
			if required {
				status = StatusUnhealthy
			}
			return Check{Status: status, Message: label + " unreachable: " + err.Error()}
		}
		return Check{Status: StatusHealthy, Message: label + " OK"}
	}
}

// OutputDir checks that the DOT output directory exists.
func OutputDir(fs afs.Service, dir string) Checker {
	return func(ctx context.Context) Check {
		details := map[string]string{"dir": dir}
		ok, err := fs.Exists(ctx, dir)
		switch {
		case err != nil:
			return Check{Status: StatusUnhealthy, Message: err.Error(), Details: details}
		case !ok:
			return Check{Status: StatusDegraded, Message: "output directory not created yet", Details: details}
		}
		return Check{Status: StatusHealthy, Message: "output directory OK", Details: details}
	}
}
