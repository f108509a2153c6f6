package server

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"
)

func TestShutdown_HookOrder(t *testing.T) {
	s := NewShutdown(time.Second, syscall.SIGUSR1)

	var mu sync.Mutex
	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}
	s.Register("stores", PriorityStores, record("stores"))
	s.Register("probes", PriorityProbes, record("probes"))
	s.Register("worker", PriorityWorker, record("worker"))
	s.Register("failing", PriorityWorker, func(context.Context) error { return errors.New("boom") })
	s.Register("tracing", PriorityTracing, record("tracing"))

	s.Start(context.Background())
	s.Trigger()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete")
	}

	want := []string{"probes", "worker", "tracing", "stores"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("hook %d = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestShutdown_TriggerBeforeStart(t *testing.T) {
	s := NewShutdown(0)
	s.Trigger()
	select {
	case <-s.Stopping():
		t.Fatal("trigger before start should be ignored")
	default:
	}
}

func TestShutdown_TriggerTwice(t *testing.T) {
	s := NewShutdown(time.Second, syscall.SIGUSR1)
	s.Start(context.Background())
	s.Start(context.Background())
	s.Trigger()
	s.Trigger()
	s.Wait()
}

func TestShutdown_Signal(t *testing.T) {
	s := NewShutdown(time.Second, syscall.SIGUSR2)
	called := make(chan struct{})
	s.Register("probe", PriorityProbes, func(context.Context) error {
		close(called)
		return nil
	})
	s.Start(context.Background())
	time.Sleep(10 * time.Millisecond)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR2); err != nil {
		t.Fatalf("kill: %v", err)
	}
	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("hook not run after signal")
	}
	s.Wait()
}
