package validator

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/efebarandurmaz/ompcfg/internal/cfg"
)

// Structure holds reachability diagnostics for a graph.
type Structure struct {
	EntryReachesExit bool     `json:"entry_reaches_exit"`
	Unreachable      []string `json:"unreachable,omitempty"`
	DeadEnds         []string `json:"dead_ends,omitempty"`
	SelfLoops        int      `json:"self_loops"`
	Cycles           int      `json:"cycles"`
}

// Inspect analyses reachability between the entry and exit nodes. Self loops
// are counted separately and left out of the cycle count.
func Inspect(g *cfg.Graph) Structure {
	var s Structure

	dg := simple.NewDirectedGraph()
	ids := make(map[string]int64, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[n.ID] = int64(i)
		dg.AddNode(simple.Node(int64(i)))
	}
	for _, e := range g.Edges {
		from, okFrom := ids[e.From]
		to, okTo := ids[e.To]
		if !okFrom || !okTo {
			continue
		}
		if from == to {
			s.SelfLoops++
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(from), simple.Node(to)))
	}
	s.Cycles = len(topo.DirectedCyclesIn(dg))

	entry, hasEntry := g.Entry()
	exit, hasExit := g.Exit()
	if !hasEntry || !hasExit {
		return s
	}
	entryNode := simple.Node(ids[entry.ID])
	exitNode := simple.Node(ids[exit.ID])
	s.EntryReachesExit = topo.PathExistsIn(dg, entryNode, exitNode)

	for _, n := range g.Nodes {
		node := simple.Node(ids[n.ID])
		if n.ID != entry.ID && !topo.PathExistsIn(dg, entryNode, node) {
			s.Unreachable = append(s.Unreachable, n.ID)
		}
		if n.ID != exit.ID && !topo.PathExistsIn(dg, node, exitNode) {
			s.DeadEnds = append(s.DeadEnds, n.ID)
		}
	}
	sort.Strings(s.Unreachable)
	sort.Strings(s.DeadEnds)
	return s
}
