package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/efebarandurmaz/ompcfg/internal/cfg"
)

// TextName is the plain-text dump renderer.
const TextName = "text"

// Text writes an indented adjacency listing of the graph. Without a graph it
// writes the DOT text itself.
type Text struct{}

// NewText creates a text renderer.
func NewText() *Text { return &Text{} }

func (t *Text) Name() string { return TextName }

func (t *Text) Render(_ context.Context, g *cfg.Graph, dot, base string) (string, error) {
	var body string
	switch {
	case g != nil:
		body = Dump(g)
	case dot != "":
		body = dot
	default:
		return "", errors.New("nothing to render")
	}

	path := base + ".txt"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.WriteString(body); err != nil {
		return "", err
	}
	return path, f.Close()
}

// Dump lists every node with its kind, label and successors.
func Dump(g *cfg.Graph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d nodes, %d edges)\n\n", g.Name, len(g.Nodes), len(g.Edges))
	for _, n := range g.Nodes {
		marker := ""
		switch {
		case n.Entry:
			marker = " <entry>"
		case n.Exit:
			marker = " <exit>"
		}
		fmt.Fprintf(&b, "%s [%s]%s %s\n", n.ID, n.Kind, marker, flatten(n.Label))
		for _, e := range g.Edges {
			if e.From != n.ID {
				continue
			}
			fmt.Fprintf(&b, "    -> %s", e.To)
			if e.Label != "" {
				fmt.Fprintf(&b, " (%s)", e.Label)
			}
			if e.Repeat {
				b.WriteString(" [repeat]")
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func flatten(label string) string {
	return strings.ReplaceAll(label, "\n", " / ")
}
