// Package pipeline runs the extract, select, synthesize, encode and validate
// stages over one source unit.
package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/efebarandurmaz/ompcfg/internal/cfg"
	"github.com/efebarandurmaz/ompcfg/internal/construct"
	"github.com/efebarandurmaz/ompcfg/internal/logging"
	"github.com/efebarandurmaz/ompcfg/internal/observability"
	"github.com/efebarandurmaz/ompcfg/internal/pattern"
	"github.com/efebarandurmaz/ompcfg/internal/validator"
)

// Unit is one source file's text under its logical name (usually a path).
type Unit struct {
	Name   string `json:"name"`
	Source string `json:"-"`
}

// Stem returns the base name of the unit without its extension.
func (u Unit) Stem() string {
	base := filepath.Base(u.Name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Result carries every stage's output for one unit.
type Result struct {
	Unit      Unit                 `json:"unit"`
	Inventory *construct.Inventory `json:"constructs"`
	Archetype pattern.Archetype    `json:"archetype"`
	Graph     *cfg.Graph           `json:"-"`
	DOT       string               `json:"-"`
	Report    validator.Report     `json:"validation"`
}

// Run executes every stage in order. It never fails: validation failures are
// reported in Result.Report.
func Run(ctx context.Context, u Unit) *Result {
	log := logging.FromContext(ctx).With("unit", u.Name)
	r := &Result{Unit: u}

	stage(ctx, "extract", func() { r.Inventory = construct.Extract(u.Source) })
	stage(ctx, "select", func() { r.Archetype = pattern.Select(u.Source, r.Inventory) })
	stage(ctx, "synthesize", func() { r.Graph = cfg.Synthesize(r.Archetype) })
	stage(ctx, "encode", func() { r.DOT = cfg.EncodeDOT(r.Graph) })

	_, span := observability.StartStageSpan(ctx, "validate")
	r.Report = validator.Validate(r.Graph, r.DOT)
	observability.RecordArchetype(span, r.Archetype.String(), r.Inventory.Total())
	observability.RecordValidation(span, r.FailedChecks())
	span.End()

	log.Debug("pipeline complete",
		"archetype", r.Archetype,
		"constructs", r.Inventory.Total(),
		"nodes", len(r.Graph.Nodes),
		"edges", len(r.Graph.Edges),
	)
	if failed := r.FailedChecks(); len(failed) > 0 {
		log.Debug("validation checks failed", "checks", failed)
	}
	return r
}

func stage(ctx context.Context, name string, fn func()) {
	_, span := observability.StartStageSpan(ctx, name)
	defer span.End()
	fn()
}

// FailedChecks returns the names of failing predicates in report order.
func (r *Result) FailedChecks() []string {
	failed := r.Report.Failed()
	out := make([]string, len(failed))
	for i, p := range failed {
		out[i] = string(p)
	}
	return out
}
