package construct

import "strings"

// Marker identifies a directive line.
const Marker = "#pragma omp"

const (
	keywordParallel = "parallel"
	keywordFor      = "for"
	keywordTask     = "task"
	keywordTaskwait = "taskwait"
	keywordSingle   = "single"
)

// SyncKeywords are the directive keywords classified as synchronization points.
var SyncKeywords = []string{"barrier", "taskwait", "critical"}

// Lines returns the directive lines of source, trimmed, with 1-based numbers.
func Lines(source string) []DirectiveLine {
	var out []DirectiveLine
	for i, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if strings.Contains(line, Marker) {
			out = append(out, DirectiveLine{Number: i + 1, Text: line})
		}
	}
	return out
}

// Extract scans source line by line and classifies every directive line.
// Lines that match no category are dropped.
func Extract(source string) *Inventory {
	inv := NewInventory()
	for _, dl := range Lines(source) {
		if c, ok := Classify(dl); ok {
			inv.add(c)
		}
	}
	return inv
}

// Classify assigns a directive line to exactly one category using a fixed
// precedence: parallel region, task, loop, single, synchronization. A line
// like "#pragma omp parallel for" therefore lands in the loop group only.
func Classify(dl DirectiveLine) (Construct, bool) {
	text := dl.Text
	if !strings.Contains(text, Marker) {
		return Construct{}, false
	}
	c := Construct{Line: dl.Number, Pragma: text}

	switch {
	case strings.Contains(text, keywordParallel) && !strings.Contains(text, keywordFor):
		c.Category = ParallelRegion
	case strings.Contains(text, keywordTask) && !strings.Contains(text, keywordTaskwait):
		c.Category = Task
		c.Untied = strings.Contains(text, "untied")
		c.FirstPrivate = strings.Contains(text, "firstprivate")
		c.Shared = strings.Contains(text, "shared")
	case strings.Contains(text, keywordFor):
		c.Category = ParallelLoop
		c.NoWait = strings.Contains(text, "nowait")
		c.Private = strings.Contains(text, "private")
	case strings.Contains(text, keywordSingle):
		c.Category = SingleRegion
	default:
		kw, ok := syncKeyword(text)
		if !ok {
			return Construct{}, false
		}
		c.Category = SyncPoint
		c.Sync = kw
	}
	return c, true
}

func syncKeyword(text string) (string, bool) {
	for _, kw := range SyncKeywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}
