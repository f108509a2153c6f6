package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-graphviz"

	"github.com/efebarandurmaz/ompcfg/internal/cfg"
)

// GraphvizName is the in-process Graphviz library renderer.
const GraphvizName = "graphviz"

var graphvizFormats = map[string]graphviz.Format{
	"png": graphviz.PNG,
	"svg": graphviz.SVG,
	"jpg": graphviz.JPG,
}

// Graphviz lays out and renders DOT text with the Graphviz library linked
// into the binary, so no dot executable is needed.
type Graphviz struct {
	format string
}

// NewGraphviz creates a library renderer. An empty format defaults to "png".
func NewGraphviz(format string) *Graphviz {
	if format == "" {
		format = "png"
	}
	return &Graphviz{format: format}
}

func (r *Graphviz) Name() string { return GraphvizName }

func (r *Graphviz) Render(ctx context.Context, _ *cfg.Graph, dot, base string) (string, error) {
	format, ok := graphvizFormats[r.format]
	if !ok {
		return "", fmt.Errorf("graphviz: unsupported format %q", r.format)
	}
	if dot == "" {
		return "", errors.New("graphviz: empty DOT input")
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("graphviz: init: %w", err)
	}
	defer gv.Close()

	graph, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return "", fmt.Errorf("graphviz: parse: %w", err)
	}
	defer graph.Close()

	path := base + "." + r.format
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := gv.RenderFilename(ctx, graph, format, path); err != nil {
		return "", fmt.Errorf("graphviz: render: %w", err)
	}
	return path, nil
}
