// Package cfg holds the control-flow graph model, the per-archetype graph
// templates and the DOT encoding used at the output boundary.
package cfg

// NodeKind tags a block for rendering.
type NodeKind string

const (
	KindTerminal NodeKind = "terminal" // entry and exit
	KindPlain    NodeKind = "plain"
	KindParallel NodeKind = "parallel"
	KindTask     NodeKind = "task"
	KindSync     NodeKind = "sync"
	KindLoop     NodeKind = "loop"
)

// Node is one basic block of the sketched control flow.
type Node struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Kind  NodeKind `json:"kind"`
	Entry bool     `json:"entry,omitempty"`
	Exit  bool     `json:"exit,omitempty"`
}

// Edge is a control-flow transition. Repeat marks transitions that can be
// taken many times (task instances, loop iterations) and is drawn dashed.
type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Label  string `json:"label,omitempty"`
	Repeat bool   `json:"repeat,omitempty"`
	Color  string `json:"color,omitempty"`
}

// Graph is a synthesized control-flow graph.
type Graph struct {
	Name  string `json:"name"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Entry returns the node flagged as entry.
func (g *Graph) Entry() (Node, bool) {
	for _, n := range g.Nodes {
		if n.Entry {
			return n, true
		}
	}
	return Node{}, false
}

// Exit returns the node flagged as exit.
func (g *Graph) Exit() (Node, bool) {
	for _, n := range g.Nodes {
		if n.Exit {
			return n, true
		}
	}
	return Node{}, false
}

// CountEntries returns how many nodes are flagged entry and exit.
func (g *Graph) CountEntries() (entries, exits int) {
	for _, n := range g.Nodes {
		if n.Entry {
			entries++
		}
		if n.Exit {
			exits++
		}
	}
	return entries, exits
}

// Successors returns the targets of edges leaving id, in edge order.
func (g *Graph) Successors(id string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// SelfLoops returns the edges whose source and target coincide.
func (g *Graph) SelfLoops() []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == e.To {
			out = append(out, e)
		}
	}
	return out
}

// FillColor is the Graphviz fill color for a node kind.
func FillColor(k NodeKind) string {
	switch k {
	case KindTerminal:
		return "lightgray"
	case KindParallel:
		return "lightblue"
	case KindTask:
		return "red"
	case KindSync:
		return "lightgreen"
	case KindLoop:
		return "yellow"
	default:
		return "white"
	}
}

// KindForColor is the inverse of FillColor; unknown colors map to KindPlain.
func KindForColor(color string) NodeKind {
	for _, k := range []NodeKind{KindTerminal, KindParallel, KindTask, KindSync, KindLoop} {
		if FillColor(k) == color {
			return k
		}
	}
	return KindPlain
}
