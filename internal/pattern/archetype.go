// Package pattern selects the structural archetype a source unit is drawn with.
package pattern

import (
	"errors"
	"fmt"
	"strings"
)

// Archetype is a named structural pattern chosen once per source unit.
type Archetype string

const (
	SparseLU     Archetype = "sparselu"
	TaskParallel Archetype = "task-parallel"
	ParallelFor  Archetype = "parallel-for"
	Basic        Archetype = "basic"
)

// ErrUnknownArchetype is returned by ParseArchetype for names outside the enumeration.
var ErrUnknownArchetype = errors.New("unknown archetype")

// All returns every archetype in selection precedence order.
func All() []Archetype {
	return []Archetype{SparseLU, TaskParallel, ParallelFor, Basic}
}

func (a Archetype) String() string { return string(a) }

// Title is the graph name used in the DOT encoding.
func (a Archetype) Title() string {
	switch a {
	case SparseLU:
		return "SparseLU_CFG"
	case TaskParallel:
		return "TaskParallel_CFG"
	case ParallelFor:
		return "ParallelFor_CFG"
	default:
		return "Basic_CFG"
	}
}

// Description is a one-line summary for listings.
func (a Archetype) Description() string {
	switch a {
	case SparseLU:
		return "SparseLU benchmark: k-loop with single lu0 and fwd/bdiv/bmod task stages"
	case TaskParallel:
		return "parallel region with a work-shared loop creating tasks"
	case ParallelFor:
		return "parallel region with a work-shared loop"
	default:
		return "sequential code, no recognized parallel structure"
	}
}

// Valid reports whether a is one of the enumerated archetypes.
func (a Archetype) Valid() bool {
	for _, v := range All() {
		if a == v {
			return true
		}
	}
	return false
}

// ParseArchetype resolves a name (case-insensitive, '_' accepted for '-').
func ParseArchetype(s string) (Archetype, error) {
	a := Archetype(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownArchetype, s)
	}
	return a, nil
}
