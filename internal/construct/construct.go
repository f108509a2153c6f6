// Package construct classifies OpenMP directive lines into a typed inventory.
package construct

import "sort"

// Category classifies a directive line.
type Category string

const (
	ParallelRegion Category = "parallel"
	Task           Category = "task"
	ParallelLoop   Category = "for"
	SingleRegion   Category = "single"
	SyncPoint      Category = "synchronization"
)

// Categories lists every category in classification precedence order.
var Categories = []Category{ParallelRegion, Task, ParallelLoop, SingleRegion, SyncPoint}

// DirectiveLine is one trimmed source line carrying the directive marker.
type DirectiveLine struct {
	Number int
	Text   string
}

// Construct is a classified directive occurrence.
type Construct struct {
	Category Category `json:"type" yaml:"type"`
	Line     int      `json:"line" yaml:"line"`
	Pragma   string   `json:"pragma" yaml:"pragma"`

	// Task flags.
	Untied       bool `json:"untied,omitempty" yaml:"untied,omitempty"`
	FirstPrivate bool `json:"firstprivate,omitempty" yaml:"firstprivate,omitempty"`
	Shared       bool `json:"shared,omitempty" yaml:"shared,omitempty"`

	// Loop flags.
	NoWait  bool `json:"nowait,omitempty" yaml:"nowait,omitempty"`
	Private bool `json:"private,omitempty" yaml:"private,omitempty"`

	// Sync is the synchronization keyword that matched (barrier, taskwait, critical).
	Sync string `json:"sync,omitempty" yaml:"sync,omitempty"`
}

// Inventory holds every construct found in one source unit, grouped by
// category. Each group keeps source-line order.
type Inventory struct {
	ParallelRegions []Construct `json:"parallel_regions" yaml:"parallel_regions"`
	Tasks           []Construct `json:"tasks" yaml:"tasks"`
	ParallelLoops   []Construct `json:"for_loops" yaml:"for_loops"`
	SingleRegions   []Construct `json:"single_regions" yaml:"single_regions"`
	SyncPoints      []Construct `json:"sync_points" yaml:"sync_points"`
}

// NewInventory returns an empty inventory with non-nil groups so that it
// serializes as empty lists rather than null.
func NewInventory() *Inventory {
	return &Inventory{
		ParallelRegions: []Construct{},
		Tasks:           []Construct{},
		ParallelLoops:   []Construct{},
		SingleRegions:   []Construct{},
		SyncPoints:      []Construct{},
	}
}

func (inv *Inventory) add(c Construct) {
	switch c.Category {
	case ParallelRegion:
		inv.ParallelRegions = append(inv.ParallelRegions, c)
	case Task:
		inv.Tasks = append(inv.Tasks, c)
	case ParallelLoop:
		inv.ParallelLoops = append(inv.ParallelLoops, c)
	case SingleRegion:
		inv.SingleRegions = append(inv.SingleRegions, c)
	case SyncPoint:
		inv.SyncPoints = append(inv.SyncPoints, c)
	}
}

// Group returns the constructs of one category.
func (inv *Inventory) Group(c Category) []Construct {
	if inv == nil {
		return nil
	}
	switch c {
	case ParallelRegion:
		return inv.ParallelRegions
	case Task:
		return inv.Tasks
	case ParallelLoop:
		return inv.ParallelLoops
	case SingleRegion:
		return inv.SingleRegions
	case SyncPoint:
		return inv.SyncPoints
	}
	return nil
}

// Count returns the number of constructs in a category.
func (inv *Inventory) Count(c Category) int { return len(inv.Group(c)) }

// Has reports whether at least one construct of the category was found.
func (inv *Inventory) Has(c Category) bool { return inv.Count(c) > 0 }

// Total returns the number of constructs across all categories.
func (inv *Inventory) Total() int {
	n := 0
	for _, c := range Categories {
		n += inv.Count(c)
	}
	return n
}

// Empty reports whether no construct was found.
func (inv *Inventory) Empty() bool { return inv.Total() == 0 }

// All returns every construct ordered by source line.
func (inv *Inventory) All() []Construct {
	out := make([]Construct, 0, inv.Total())
	for _, c := range Categories {
		out = append(out, inv.Group(c)...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}
