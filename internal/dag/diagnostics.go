package dag

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// DiagnosticKind classifies a non-fatal layout problem.
type DiagnosticKind string

const (
	// KindMissingRef means a group lists a downstream group that is not in
	// the input set. The edge is ignored.
	KindMissingRef DiagnosticKind = "missing_ref"

	// KindCycle means level computation re-entered a group already on the
	// current path. The re-entered group contributes level 0 at that point.
	KindCycle DiagnosticKind = "cycle"

	// KindDuplicate means a group name appears more than once in the input.
	// All occurrences share the layout computed for the name.
	KindDuplicate DiagnosticKind = "duplicate"
)

// Diagnostic describes a single layout problem.
type Diagnostic struct {
	Kind  DiagnosticKind `json:"kind"`
	Group string         `json:"group"`          // group being processed
	Ref   string         `json:"ref,omitempty"`  // missing downstream name (KindMissingRef)
	Path  []string       `json:"path,omitempty"` // recursion path that closed the cycle (KindCycle)
}

// String renders the diagnostic as a single human-readable line.
func (d Diagnostic) String() string {
	switch d.Kind {
	case KindMissingRef:
		return fmt.Sprintf("group %q lists unknown downstream group %q", d.Group, d.Ref)
	case KindCycle:
		if len(d.Path) > 0 {
			return fmt.Sprintf("cycle detected at group %q: %s → %s", d.Group, strings.Join(d.Path, " → "), d.Group)
		}
		return fmt.Sprintf("cycle detected at group %q", d.Group)
	case KindDuplicate:
		return fmt.Sprintf("group %q appears more than once", d.Group)
	default:
		return fmt.Sprintf("%s: group %q", d.Kind, d.Group)
	}
}

// Reporter receives layout diagnostics. Implementations must not panic;
// nothing a Reporter does can change a layout result.
type Reporter interface {
	Report(Diagnostic)
}

// ReporterFunc adapts a plain function to the Reporter interface.
type ReporterFunc func(Diagnostic)

// Report calls f(d).
func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// MultiReporter fans a diagnostic out to every non-nil reporter in order.
type MultiReporter []Reporter

// Report forwards d to each reporter.
func (m MultiReporter) Report(d Diagnostic) {
	for _, r := range m {
		if r != nil {
			r.Report(d)
		}
	}
}

// WriterReporter writes one "dag: warning: ..." line per diagnostic. It is
// safe for concurrent use.
type WriterReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterReporter returns a reporter writing to w.
func NewWriterReporter(w io.Writer) *WriterReporter {
	return &WriterReporter{w: w}
}

// Report writes d to the underlying writer. Write errors are dropped.
func (r *WriterReporter) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "dag: warning: %s\n", d)
}

// Collector accumulates diagnostics in memory, in report order.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// Report appends d.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

// Diagnostics returns a copy of everything reported so far.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	return out
}

// stderrReporter is the default sink when warnings are enabled and no
// reporter was supplied.
var stderrReporter Reporter = NewWriterReporter(os.Stderr)
