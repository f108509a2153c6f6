package cfg

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/graph/formats/dot"
	"gonum.org/v1/gonum/graph/formats/dot/ast"
)

// ErrNotDigraph is returned when DOT text holds no directed graph.
var ErrNotDigraph = errors.New("no directed graph in DOT input")

// ParseDOT reads the first graph of a DOT document back into a Graph. Nodes
// named BB_entry and BB_exit are flagged entry and exit; node kinds are
// recovered from fillcolor.
func ParseDOT(text string) (*Graph, error) {
	file, err := dot.ParseString(text)
	if err != nil {
		return nil, fmt.Errorf("parse dot: %w", err)
	}
	if len(file.Graphs) == 0 || !file.Graphs[0].Directed {
		return nil, ErrNotDigraph
	}
	src := file.Graphs[0]

	p := &dotParser{g: &Graph{Name: unquote(src.ID)}, index: map[string]int{}}
	for _, stmt := range src.Stmts {
		switch s := stmt.(type) {
		case *ast.NodeStmt:
			p.nodeStmt(s)
		case *ast.EdgeStmt:
			p.edgeStmt(s)
		}
	}
	return p.g, nil
}

type dotParser struct {
	g     *Graph
	index map[string]int
}

func (p *dotParser) ensure(id string) *Node {
	if i, ok := p.index[id]; ok {
		return &p.g.Nodes[i]
	}
	p.g.Nodes = append(p.g.Nodes, Node{
		ID:    id,
		Label: id,
		Kind:  KindPlain,
		Entry: id == EntryID,
		Exit:  id == ExitID,
	})
	p.index[id] = len(p.g.Nodes) - 1
	return &p.g.Nodes[len(p.g.Nodes)-1]
}

func (p *dotParser) nodeStmt(s *ast.NodeStmt) {
	n := p.ensure(unquote(s.Node.ID))
	for _, a := range s.Attrs {
		switch a.Key {
		case "label":
			n.Label = unquote(a.Val)
		case "fillcolor":
			n.Kind = KindForColor(unquote(a.Val))
		}
	}
}

func (p *dotParser) edgeStmt(s *ast.EdgeStmt) {
	var proto Edge
	for _, a := range s.Attrs {
		switch a.Key {
		case "label":
			proto.Label = unquote(a.Val)
		case "style":
			proto.Repeat = unquote(a.Val) == "dashed"
		case "color":
			proto.Color = unquote(a.Val)
		}
	}

	from, ok := vertexID(s.From)
	for to := s.To; to != nil; to = to.To {
		target, tok := vertexID(to.Vertex)
		if ok && tok {
			p.ensure(from)
			p.ensure(target)
			e := proto
			e.From, e.To = from, target
			p.g.Edges = append(p.g.Edges, e)
		}
		from, ok = target, tok
	}
}

// vertexID returns the id of a plain node vertex; subgraph vertices are skipped.
func vertexID(v ast.Vertex) (string, bool) {
	n, ok := v.(*ast.Node)
	if !ok {
		return "", false
	}
	return unquote(n.ID), true
}

// unquote strips DOT double quotes and resolves the escapes EncodeDOT emits.
func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case '"', '\\':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
