package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/viant/afs"

	"github.com/efebarandurmaz/ompcfg/internal/batch"
	"github.com/efebarandurmaz/ompcfg/internal/cache"
	"github.com/efebarandurmaz/ompcfg/internal/config"
	"github.com/efebarandurmaz/ompcfg/internal/console"
	"github.com/efebarandurmaz/ompcfg/internal/discovery"
	"github.com/efebarandurmaz/ompcfg/internal/graph/neo4j"
	"github.com/efebarandurmaz/ompcfg/internal/logging"
	"github.com/efebarandurmaz/ompcfg/internal/observability"
	"github.com/efebarandurmaz/ompcfg/internal/output"
	"github.com/efebarandurmaz/ompcfg/internal/pipeline"
	"github.com/efebarandurmaz/ompcfg/internal/render"
	"github.com/efebarandurmaz/ompcfg/internal/vector"
	"github.com/efebarandurmaz/ompcfg/internal/vector/qdrant"
)

// app carries configuration and shared collaborators across subcommands.
type app struct {
	configPath string
	logLevel   string

	cfg     *config.Config
	log     *slog.Logger
	fs      afs.Service
	closers []func(context.Context) error
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config load failed (%v), using defaults\n", err)
		cfg = config.Default()
	}
	for _, w := range cfg.Validate() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	a.fs = afs.New()
	a.log = logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: cfg.Tracing.ServiceVersion,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		a.log.Warn("tracing disabled", "error", err)
	} else {
		a.closers = append(a.closers, tp.Shutdown)
	}

	cmd.SetContext(logging.WithLogger(ctx, a.log))
	return nil
}

func (a *app) close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) printer(cmd *cobra.Command) *console.Printer {
	return console.New(cmd.OutOrStdout(), console.DefaultStyles())
}

// finder builds a discovery finder from the directive and discovery sections.
func (a *app) finder() (*discovery.Finder, error) {
	return discovery.NewFinder(a.fs, discovery.Options{
		Extensions: a.cfg.Directive.Extensions,
		Include:    a.cfg.Discovery.Include,
		Exclude:    a.cfg.Discovery.Exclude,
	})
}

func (a *app) chain() (*render.Chain, error) {
	return render.Build(a.cfg.Render.Order, render.Options{
		DotBinary: a.cfg.Render.DotBinary,
		Format:    a.cfg.Render.Format,
	})
}

type stores struct {
	graph bool
	index bool
	cache bool
}

// processor wires a batch.Processor writing into outDir with the optional
// collaborators requested in s.
func (a *app) processor(ctx context.Context, outDir string, s stores) (*batch.Processor, error) {
	if outDir == "" {
		outDir = a.cfg.Output.Dir
	}
	p := &batch.Processor{
		FS:     a.fs,
		Writer: output.NewWriter(a.fs, outDir, a.cfg.Output.Suffix),
	}

	if a.cfg.Render.Enabled {
		chain, err := a.chain()
		if err != nil {
			return nil, err
		}
		p.Chain = chain
	}

	if s.graph {
		repo, err := a.graphRepo(ctx)
		if err != nil {
			return nil, err
		}
		p.Graphs = repo
	}

	if s.index {
		ix, err := a.indexer(ctx)
		if err != nil {
			return nil, err
		}
		p.Indexer = ix
	}

	if s.cache || a.cfg.Cache.Enabled {
		store, err := cache.Open(a.cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
		p.Cache = store
	}
	return p, nil
}

func (a *app) graphRepo(ctx context.Context) (*neo4j.Neo4jRepository, error) {
	if a.cfg.Graph.URI == "" {
		return nil, errors.New("graph.uri is not configured")
	}
	repo, err := neo4j.NewNeo4j(ctx, a.cfg.Graph.URI, a.cfg.Graph.Username, a.cfg.Graph.Password)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, repo.Close)
	return repo, nil
}

func (a *app) indexer(ctx context.Context) (*vector.Indexer, error) {
	if a.cfg.Vector.Host == "" {
		return nil, errors.New("vector.host is not configured")
	}
	repo, err := qdrant.NewQdrant(ctx, a.cfg.Vector.Host, a.cfg.Vector.Port, a.cfg.Vector.Collection)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return repo.Close() })
	return vector.NewIndexer(repo), nil
}

// readUnit loads one source file, rejecting missing and blank input.
func (a *app) readUnit(ctx context.Context, path string) (pipeline.Unit, error) {
	p := &batch.Processor{FS: a.fs}
	u, err := p.Read(ctx, path)
	if err != nil {
		return u, err
	}
	if isBlank(u.Source) {
		return u, fmt.Errorf("input file '%s' is empty", path)
	}
	return u, nil
}
