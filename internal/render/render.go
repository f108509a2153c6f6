// Package render turns DOT encodings into viewable artifacts through a fixed
// fallback chain of renderers.
package render

import (
	"context"
	"fmt"

	"github.com/efebarandurmaz/ompcfg/internal/cfg"
	"github.com/efebarandurmaz/ompcfg/internal/logging"
	"github.com/efebarandurmaz/ompcfg/internal/observability"
)

// Renderer produces one artifact from a graph and its DOT text. base is the
// output path without extension; the renderer picks the extension.
type Renderer interface {
	Name() string
	Render(ctx context.Context, g *cfg.Graph, dot, base string) (string, error)
}

// Attempt records one renderer invocation.
type Attempt struct {
	Renderer string `json:"renderer"`
	Path     string `json:"path,omitempty"`
	Err      string `json:"error,omitempty"`
}

// Outcome is the result of a chain run. Path is empty when every renderer
// failed, which callers treat as a degraded success.
type Outcome struct {
	Renderer string    `json:"renderer,omitempty"`
	Path     string    `json:"path,omitempty"`
	Attempts []Attempt `json:"attempts"`
}

// OK reports whether some renderer produced an artifact.
func (o Outcome) OK() bool { return o.Path != "" }

// Chain tries renderers in order until one succeeds.
type Chain struct {
	renderers []Renderer
}

// NewChain creates a chain over rs in the given order.
func NewChain(rs ...Renderer) *Chain {
	return &Chain{renderers: rs}
}

// Options configures the built-in renderers.
type Options struct {
	DotBinary string
	Format    string
}

// Build assembles a chain from renderer names. Unknown names are an error.
func Build(order []string, opts Options) (*Chain, error) {
	var rs []Renderer
	for _, name := range order {
		switch name {
		case GraphvizName:
			rs = append(rs, NewGraphviz(opts.Format))
		case DotName:
			rs = append(rs, NewDot(opts.DotBinary, opts.Format))
		case RasterName:
			rs = append(rs, NewRaster())
		case TextName:
			rs = append(rs, NewText())
		default:
			return nil, fmt.Errorf("unknown renderer %q", name)
		}
	}
	return NewChain(rs...), nil
}

// Names lists the chain's renderers in order.
func (c *Chain) Names() []string {
	out := make([]string, len(c.renderers))
	for i, r := range c.renderers {
		out[i] = r.Name()
	}
	return out
}

// Render runs the chain. It never fails; every attempt is reported in the
// outcome and logged when it fails.
func (c *Chain) Render(ctx context.Context, g *cfg.Graph, dot, base string) Outcome {
	log := logging.FromContext(ctx)
	out := Outcome{Attempts: make([]Attempt, 0, len(c.renderers))}

	for _, r := range c.renderers {
		if err := ctx.Err(); err != nil {
			out.Attempts = append(out.Attempts, Attempt{Renderer: r.Name(), Err: err.Error()})
			break
		}

		rctx, span := observability.StartRenderSpan(ctx, r.Name())
		path, err := r.Render(rctx, g, dot, base)
		observability.RecordError(span, err)
		span.End()

		if err != nil {
			log.Warn("renderer failed, trying next", "renderer", r.Name(), "error", err)
			out.Attempts = append(out.Attempts, Attempt{Renderer: r.Name(), Err: err.Error()})
			continue
		}
		out.Attempts = append(out.Attempts, Attempt{Renderer: r.Name(), Path: path})
		out.Renderer = r.Name()
		out.Path = path
		log.Debug("rendered", "renderer", r.Name(), "path", path)
		return out
	}

	log.Info("no renderer succeeded, DOT output kept", "attempts", len(out.Attempts))
	return out
}
