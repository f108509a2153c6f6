// Package validator checks synthesized graphs against structural
// well-formedness predicates. Failing predicates are reported, not raised.
package validator

import (
	"strings"

	"github.com/efebarandurmaz/ompcfg/internal/cfg"
)

// Predicate names a well-formedness check.
type Predicate string

const (
	HasEntryExit            Predicate = "has_entry_exit"
	ParallelRegionsDetected Predicate = "parallel_regions_detected"
	TasksDetected           Predicate = "tasks_detected"
	SyncPointsDetected      Predicate = "sync_points_detected"
	ValidSyntax             Predicate = "valid_dot_syntax"
	HasEdges                Predicate = "has_edges"
)

// Predicates lists every predicate in report order.
var Predicates = []Predicate{
	HasEntryExit,
	ParallelRegionsDetected,
	TasksDetected,
	SyncPointsDetected,
	ValidSyntax,
	HasEdges,
}

const (
	graphKeyword    = "digraph"
	parallelKeyword = "parallel"
	taskKeyword     = "task"
	edgeMarker      = "->"
)

var (
	syncKeywords  = []string{"barrier", "single", "sync"}
	entryPatterns = []string{"Entry", "BB_entry", "entry"}
	exitPatterns  = []string{"Exit", "BB_exit", "exit"}
)

// Report maps every predicate to its outcome.
type Report map[Predicate]bool

// Passed reports whether every predicate holds.
func (r Report) Passed() bool {
	return len(r.Failed()) == 0
}

// Failed returns the failing predicates in report order.
func (r Report) Failed() []Predicate {
	var out []Predicate
	for _, p := range Predicates {
		if !r[p] {
			out = append(out, p)
		}
	}
	return out
}

// Validate computes every predicate independently. Entry and exit are
// checked by tag when g is non-nil and by name pattern in encoded otherwise.
func Validate(g *cfg.Graph, encoded string) Report {
	lower := strings.ToLower(encoded)
	return Report{
		HasEntryExit:            hasEntryExit(g, encoded),
		ParallelRegionsDetected: strings.Contains(lower, parallelKeyword),
		TasksDetected:           strings.Contains(lower, taskKeyword),
		SyncPointsDetected:      containsAny(lower, syncKeywords),
		ValidSyntax:             validSyntax(encoded),
		HasEdges:                strings.Contains(encoded, edgeMarker),
	}
}

func hasEntryExit(g *cfg.Graph, encoded string) bool {
	if g != nil {
		_, entry := g.Entry()
		_, exit := g.Exit()
		return entry && exit
	}
	return containsAny(encoded, entryPatterns) && containsAny(encoded, exitPatterns)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// validSyntax requires the digraph keyword first and balanced braces outside
// quoted strings.
func validSyntax(encoded string) bool {
	if !strings.HasPrefix(strings.TrimSpace(encoded), graphKeyword) {
		return false
	}
	return balancedBraces(encoded)
}

func balancedBraces(s string) bool {
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote {
			switch c {
			case '\\':
				i++
			case '"':
				inQuote = false
			}
			continue
		}
		switch c {
		case '"':
			inQuote = true
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0 && !inQuote
}
