package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/efebarandurmaz/ompcfg/internal/cfg"
)

// DotName is the Graphviz command-line renderer.
const DotName = "dot"

// Dot pipes DOT text into the Graphviz dot binary.
type Dot struct {
	binary string
	format string
}

// NewDot creates a dot renderer. Empty arguments default to "dot" and "png".
func NewDot(binary, format string) *Dot {
	if binary == "" {
		binary = "dot"
	}
	if format == "" {
		format = "png"
	}
	return &Dot{binary: binary, format: format}
}

func (d *Dot) Name() string { return DotName }

func (d *Dot) Render(ctx context.Context, _ *cfg.Graph, dot, base string) (string, error) {
	bin, err := exec.LookPath(d.binary)
	if err != nil {
		return "", fmt.Errorf("locate %s: %w", d.binary, err)
	}
	path := base + "." + d.format

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-T"+d.format, "-o", path)
	cmd.Stdin = strings.NewReader(dot)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %w: %s", d.binary, err, msg)
		}
		return "", fmt.Errorf("%s: %w", d.binary, err)
	}
	return path, nil
}
