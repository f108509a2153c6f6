package server

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/efebarandurmaz/ompcfg/internal/logging"
)

// Hook priorities. Lower runs first.
const (
	PriorityProbes  = 5
	PriorityWorker  = 20
	PriorityTracing = 80
	PriorityStores  = 90
)

// Hook is a cleanup step run during shutdown.
type Hook struct {
	Name     string
	Priority int
	Fn       func(ctx context.Context) error
}

// Shutdown runs registered hooks once, on a signal or on Trigger.
type Shutdown struct {
	mu       sync.Mutex
	hooks    []Hook
	timeout  time.Duration
	signals  []os.Signal
	started  bool
	trigger  chan struct{}
	stopping chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewShutdown creates a handler with the given hook timeout. Zero means 30s;
// no signals means SIGTERM and SIGINT.
func NewShutdown(timeout time.Duration, signals ...os.Signal) *Shutdown {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGTERM, syscall.SIGINT}
	}
	return &Shutdown{
		timeout:  timeout,
		signals:  signals,
		trigger:  make(chan struct{}),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Register adds a hook. Hooks of equal priority keep registration order.
func (s *Shutdown) Register(name string, priority int, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, Hook{Name: name, Priority: priority, Fn: fn})
	sort.SliceStable(s.hooks, func(i, j int) bool { return s.hooks[i].Priority < s.hooks[j].Priority })
}

// Start listens for signals in the background.
func (s *Shutdown) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, s.signals...)
	go func() {
		select {
		case sig := <-sigCh:
			logging.FromContext(ctx).Info("shutdown signal received", "signal", sig.String())
		case <-s.trigger:
		}
		signal.Stop(sigCh)
		s.run(ctx)
	}()
}

// Trigger starts shutdown without a signal. It is a no-op before Start.
func (s *Shutdown) Trigger() {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return
	}
	s.once.Do(func() { close(s.trigger) })
}

// Stopping closes when hooks begin running.
func (s *Shutdown) Stopping() <-chan struct{} { return s.stopping }

// Done closes when every hook has run.
func (s *Shutdown) Done() <-chan struct{} { return s.done }

// Wait blocks until Done.
func (s *Shutdown) Wait() { <-s.done }

func (s *Shutdown) run(parent context.Context) {
	close(s.stopping)
	log := logging.FromContext(parent)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.timeout)
	defer cancel()

	s.mu.Lock()
	hooks := append([]Hook(nil), s.hooks...)
	s.mu.Unlock()

	for _, h := range hooks {
		if err := h.Fn(ctx); err != nil {
			log.Warn("shutdown hook failed", "hook", h.Name, "error", err)
		}
	}
	close(s.done)
}
