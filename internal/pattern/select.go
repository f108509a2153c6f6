package pattern

import (
	"strings"

	"github.com/efebarandurmaz/ompcfg/internal/construct"
)

// Lexical fingerprints of the BOTS SparseLU benchmark.
const (
	sparseLUToken = "sparselu"
	lu0Token      = "lu0"
	fwdToken      = "fwd"
)

// Select picks the archetype for a source unit. The first matching rule wins:
// SparseLU fingerprint, then parallel+task+loop, then parallel+loop, then basic.
// A nil inventory is treated as empty.
func Select(source string, inv *construct.Inventory) Archetype {
	if IsSparseLU(source) {
		return SparseLU
	}
	return Classify(
		inv.Has(construct.ParallelRegion),
		inv.Has(construct.Task),
		inv.Has(construct.ParallelLoop),
	)
}

// IsSparseLU reports whether source carries the SparseLU fingerprint: the
// benchmark name in any case, or both the lu0 and fwd kernel names.
func IsSparseLU(source string) bool {
	if strings.Contains(strings.ToLower(source), sparseLUToken) {
		return true
	}
	return strings.Contains(source, lu0Token) && strings.Contains(source, fwdToken)
}

// Classify maps the presence of parallel regions, tasks and loops to an archetype.
func Classify(hasParallel, hasTask, hasLoop bool) Archetype {
	switch {
	case hasParallel && hasTask && hasLoop:
		return TaskParallel
	case hasParallel && hasLoop:
		return ParallelFor
	default:
		return Basic
	}
}
