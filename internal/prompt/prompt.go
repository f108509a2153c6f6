// Package prompt assembles the CFG analysis prompt for a source unit.
// Nothing in ompcfg sends it anywhere; it is printed for use with an
// external model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/efebarandurmaz/ompcfg/internal/construct"
)

// Hardware describes the target machine quoted in the prompt.
type Hardware struct {
	Cores  int    `mapstructure:"cores" json:"cores"`
	Arch   string `mapstructure:"arch" json:"arch"`
	Memory string `mapstructure:"memory" json:"memory"`
}

// DefaultHardware returns 8 cores, x86_64 and 16GB.
func DefaultHardware() Hardware {
	return Hardware{Cores: 8, Arch: "x86_64", Memory: "16GB"}
}

// withDefaults fills zero fields from DefaultHardware.
func (h Hardware) withDefaults() Hardware {
	d := DefaultHardware()
	if h.Cores <= 0 {
		h.Cores = d.Cores
	}
	if h.Arch == "" {
		h.Arch = d.Arch
	}
	if h.Memory == "" {
		h.Memory = d.Memory
	}
	return h
}

const system = "You are an expert in parallel programming and control flow analysis.\n" +
	"Generate a Control Flow Graph (CFG) for the following OpenMP C code."

var requirements = []string{
	"Create nodes for each basic block",
	"Show control flow edges between blocks",
	"Annotate parallel regions and task creation points",
	"Mark synchronization points (barriers, taskwait)",
	"Distinguish between tied and untied tasks",
	"Show loop structures and iterations",
}

var conventions = []string{
	"Nodes representing basic blocks (BB_X format)",
	"Edges showing control flow transitions",
	"Color coding: lightblue for parallel regions, red for tasks, lightgreen for sync points, yellow for parallel for loops",
	"Labels indicating OpenMP construct types",
	"Clear entry and exit points",
}

// Build renders the prompt. A nil inventory is extracted from source.
func Build(source string, inv *construct.Inventory, hw Hardware) (string, error) {
	if inv == nil {
		inv = construct.Extract(source)
	}
	detected, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal constructs: %w", err)
	}
	hw = hw.withDefaults()

	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\nDETECTED OPENMP CONSTRUCTS:\n")
	b.Write(detected)
	b.WriteString("\n\nSOURCE CODE:\n```c\n")
	b.WriteString(source)
	b.WriteString("\n```\n\nHARDWARE SPECIFICATIONS:\n")
	fmt.Fprintf(&b, "- Cores: %d\n- Architecture: %s\n- Memory: %s\n", hw.Cores, hw.Arch, hw.Memory)
	b.WriteString("\nREQUIREMENTS:\n")
	for i, r := range requirements {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	b.WriteString("\nOUTPUT FORMAT:\nProvide the CFG in Graphviz DOT notation with:\n")
	for _, c := range conventions {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("\nGenerate the complete DOT graph now:\n")
	return b.String(), nil
}
