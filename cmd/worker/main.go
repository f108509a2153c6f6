package main

import (
	"context"
	"fmt"
	"os"

	"github.com/viant/afs"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/efebarandurmaz/ompcfg/internal/batch"
	"github.com/efebarandurmaz/ompcfg/internal/cache"
	"github.com/efebarandurmaz/ompcfg/internal/config"
	"github.com/efebarandurmaz/ompcfg/internal/discovery"
	"github.com/efebarandurmaz/ompcfg/internal/logging"
	"github.com/efebarandurmaz/ompcfg/internal/observability"
	"github.com/efebarandurmaz/ompcfg/internal/output"
	"github.com/efebarandurmaz/ompcfg/internal/render"
	"github.com/efebarandurmaz/ompcfg/internal/server"
	temporalmod "github.com/efebarandurmaz/ompcfg/internal/temporal"
)

func main() {
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	if err := run(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config load failed (%v), using defaults\n", err)
		cfg = config.Default()
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	ctx := logging.WithLogger(context.Background(), log)
	for _, w := range cfg.Validate() {
		log.Warn("config", "warning", w)
	}

	shutdown := server.NewShutdown(0)

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName + "-worker",
		ServiceVersion: cfg.Tracing.ServiceVersion,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	shutdown.Register("tracing", server.PriorityTracing, tp.Shutdown)

	fs := afs.New()
	finder, err := discovery.NewFinder(fs, discovery.Options{
		Extensions: cfg.Directive.Extensions,
		Include:    cfg.Discovery.Include,
		Exclude:    cfg.Discovery.Exclude,
	})
	if err != nil {
		return err
	}
	stats := observability.NewUnitStats()
	proc := &batch.Processor{
		FS:     fs,
		Writer: output.NewWriter(fs, cfg.Output.Dir, cfg.Output.Suffix),
		Stats:  stats,
	}
	if cfg.Render.Enabled {
		chain, err := render.Build(cfg.Render.Order, render.Options{DotBinary: cfg.Render.DotBinary, Format: cfg.Render.Format})
		if err != nil {
			return err
		}
		proc.Chain = chain
	}
	if cfg.Cache.Enabled || cfg.Batch.Incremental {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return err
		}
		shutdown.Register("cache", server.PriorityStores, func(context.Context) error { return store.Close() })
		proc.Cache = store
	}

	temporalmod.SetDependencies(&temporalmod.Dependencies{
		Finder:    finder,
		Processor: proc,
	})

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("temporal client: %w", err)
	}
	shutdown.Register("temporal-client", server.PriorityStores, func(context.Context) error {
		c.Close()
		return nil
	})

	w, err := temporalmod.StartWorker(c, cfg.Temporal.TaskQueue)
	if err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	shutdown.Register("temporal-worker", server.PriorityWorker, func(context.Context) error {
		w.Stop()
		return nil
	})

	health := server.NewHealth(cfg.Tracing.ServiceVersion)
	health.Register("temporal", server.Dependency("Temporal", true, func(ctx context.Context) error {
		_, err := c.CheckHealth(ctx, &temporalclient.CheckHealthRequest{})
		return err
	}))
	health.Register("output", server.OutputDir(fs, cfg.Output.Dir))
	health.Mount("/metrics", stats.Handler())
	shutdown.Register("health", server.PriorityProbes, func(ctx context.Context) error {
		health.SetReady(false)
		return health.Shutdown(ctx)
	})
	go func() {
		if err := health.ListenAndServe(cfg.Health.Addr); err != nil {
			log.Error("health server stopped", "error", err)
		}
	}()
	health.SetReady(true)

	log.Info("worker started", "task_queue", cfg.Temporal.TaskQueue, "health", cfg.Health.Addr)
	shutdown.Start(ctx)
	shutdown.Wait()
	log.Info("worker stopped")
	return nil
}
