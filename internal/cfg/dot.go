package cfg

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// Suffix is appended to a unit's stem to name its DOT output file.
const Suffix = "_cfg.dot"

// EncodeDOT renders the graph in Graphviz DOT notation.
func EncodeDOT(g *Graph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", quote(g.Name))
	b.WriteString("    rankdir=TB;\n")
	b.WriteString("    node [shape=box, style=filled];\n\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "    %s [label=%s, fillcolor=%s];\n", n.ID, quote(n.Label), FillColor(n.Kind))
	}
	b.WriteString("\n")

	for _, e := range g.Edges {
		attrs := edgeAttrs(e)
		if len(attrs) == 0 {
			fmt.Fprintf(&b, "    %s -> %s;\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&b, "    %s -> %s [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	b.WriteString("}\n")
	return b.String()
}

func edgeAttrs(e Edge) []string {
	var attrs []string
	if e.Label != "" {
		attrs = append(attrs, "label="+quote(e.Label))
	}
	if e.Repeat {
		attrs = append(attrs, "style=dashed")
	}
	if e.Color != "" {
		attrs = append(attrs, "color="+e.Color)
	}
	return attrs
}

// quote produces a DOT double-quoted string; newlines become \n line breaks.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

// ExportMermaid renders the graph as a Mermaid flowchart.
func ExportMermaid(g *Graph) string {
	var b strings.Builder
	b.WriteString("flowchart TB\n")
	for _, n := range g.Nodes {
		label := strings.ReplaceAll(n.Label, `"`, "'")
		label = strings.ReplaceAll(label, "\n", "<br/>")
		fmt.Fprintf(&b, "  %s[\"%s\"]\n", n.ID, label)
	}
	for _, e := range g.Edges {
		arrow := "-->"
		if e.Repeat {
			arrow = "-.->"
		}
		label := ""
		if e.Label != "" {
			label = "|" + e.Label + "|"
		}
		fmt.Fprintf(&b, "  %s %s%s %s\n", e.From, arrow, label, e.To)
	}
	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "  style %s fill:%s\n", n.ID, FillColor(n.Kind))
	}
	return b.String()
}

// ExportJSON serializes the graph to JSON.
func ExportJSON(g *Graph) ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// Export formats.
const (
	FormatDOT     = "dot"
	FormatMermaid = "mermaid"
	FormatJSON    = "json"
)

// Export encodes g in one of the export formats and returns the text along
// with the file extension it is stored under.
func Export(g *Graph, format string) (text, ext string, err error) {
	switch format {
	case FormatDOT, "":
		return EncodeDOT(g), ".dot", nil
	case FormatMermaid:
		return ExportMermaid(g), ".mmd", nil
	case FormatJSON:
		data, err := ExportJSON(g)
		if err != nil {
			return "", "", err
		}
		return string(data) + "\n", ".json", nil
	default:
		return "", "", fmt.Errorf("unknown export format %q (dot, mermaid, json)", format)
	}
}
