package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"

	"github.com/efebarandurmaz/ompcfg/internal/construct"
	"github.com/efebarandurmaz/ompcfg/internal/pattern"
	"github.com/efebarandurmaz/ompcfg/internal/validator"
)

// Printer writes styled output to w.
type Printer struct {
	w io.Writer
	s *Styles
}

// New returns a Printer. Nil styles means PlainStyles.
func New(w io.Writer, s *Styles) *Printer {
	if s == nil {
		s = PlainStyles()
	}
	return &Printer{w: w, s: s}
}

// Title prints a section heading preceded by a blank line.
func (p *Printer) Title(format string, args ...any) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.s.Title.Render(fmt.Sprintf(format, args...)))
}

// Line prints an indented plain line.
func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, "   "+format+"\n", args...)
}

// Field prints an indented "label: value" line.
func (p *Printer) Field(label string, value any) {
	fmt.Fprintf(p.w, "   %s %v\n", p.s.Label.Render(label+":"), value)
}

// Status renders a PASS or FAIL badge.
func (p *Printer) Status(ok bool) string {
	if ok {
		return p.s.Pass.Render("✓ PASS")
	}
	return p.s.Fail.Render("✗ FAIL")
}

// Warn prints a warning badge followed by the message.
func (p *Printer) Warn(msg string) {
	fmt.Fprintln(p.w)
	fmt.Fprintf(p.w, "%s %s\n", p.s.Warn.Render("WARN"), msg)
}

// PrintInventory prints the detected constructs as indented JSON, or a
// note when there are none.
func (p *Printer) PrintInventory(inv *construct.Inventory) error {
	p.Title("Detected OpenMP constructs:")
	if inv.Empty() {
		p.Line("No OpenMP constructs found")
		return nil
	}
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}
	fmt.Fprintln(p.w, string(data))
	return nil
}

// PrintArchetype prints the selected archetype and its description.
func (p *Printer) PrintArchetype(a pattern.Archetype) {
	p.Field("archetype", fmt.Sprintf("%s (%s)", a, a.Title()))
	p.Line("%s", p.s.Muted.Render(a.Description()))
}

// PrintReport prints each predicate in report order and a warning if any
// failed. It returns whether all passed.
func (p *Printer) PrintReport(r validator.Report) bool {
	p.Title("Validating CFG...")
	for _, pred := range validator.Predicates {
		p.Line("%s: %s", pred, p.Status(r[pred]))
	}
	if !r.Passed() {
		p.Warn("Some validation checks failed, but continuing...")
		return false
	}
	return true
}

// PrintStructure prints reachability diagnostics.
func (p *Printer) PrintStructure(s validator.Structure) {
	p.Title("Structure:")
	p.Line("entry_reaches_exit: %s", p.Status(s.EntryReachesExit))
	p.Field("self loops", s.SelfLoops)
	p.Field("cycles", s.Cycles)
	if len(s.Unreachable) > 0 {
		p.Field("unreachable", strings.Join(s.Unreachable, ", "))
	}
	if len(s.DeadEnds) > 0 {
		p.Field("dead ends", strings.Join(s.DeadEnds, ", "))
	}
}

// Box prints lines inside a rounded border.
func (p *Printer) Box(lines ...string) {
	fmt.Fprintln(p.w, p.s.Box.Render(strings.Join(lines, "\n")))
}
