// Package ui provides terminal output for flowlane: status lines on stderr
// and table and graph renderings of computed layouts.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/papapumpkin/flowlane/internal/ansi"
	"github.com/papapumpkin/flowlane/internal/dag"
	"github.com/papapumpkin/flowlane/internal/store"
	"github.com/papapumpkin/flowlane/internal/workflow"
)

// Printer writes human-oriented status lines. Diagnostics and progress go
// to stderr so stdout stays clean for layouts piped to other tools.
type Printer struct {
	out   io.Writer
	color bool
	mu    sync.Mutex
}

// New returns a Printer writing colored output to stderr.
func New() *Printer {
	return &Printer{out: os.Stderr, color: true}
}

// NewWriter returns a Printer writing to w. Color can be disabled for
// non-terminals and tests.
func NewWriter(w io.Writer, color bool) *Printer {
	return &Printer{out: w, color: color}
}

// paint wraps s in the given ANSI codes when color is on.
func (p *Printer) paint(s string, codes ...string) string {
	if !p.color {
		return s
	}
	return ansi.Wrap(s, codes...)
}

func (p *Printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) Error(msg string) {
	p.printf("%s%s\n", p.paint("error: ", ansi.Red, ansi.Bold), msg)
}

func (p *Printer) Warn(msg string) {
	p.printf("%s%s\n", p.paint("warning: ", ansi.Yellow, ansi.Bold), msg)
}

func (p *Printer) Info(msg string) {
	p.printf("%s\n", p.paint(msg, ansi.Dim))
}

func (p *Printer) Success(msg string) {
	p.printf("%s %s\n", p.paint("✓", ansi.Green, ansi.Bold), msg)
}

// Report implements dag.Reporter, printing each diagnostic as a warning.
func (p *Printer) Report(d dag.Diagnostic) {
	p.Warn(d.String())
}

// FetchFailed reports a failed poll without stopping a watch session.
func (p *Printer) FetchFailed(name string, err error) {
	p.printf("%s %s: %v\n", p.paint("✗ fetch", ansi.Red), name, err)
}

// Stale announces that a stored snapshot is shown instead of live data.
func (p *Printer) Stale(name string, fetchedAt time.Time) {
	p.printf("%s %s from snapshot taken %s\n",
		p.paint("◆ stale", ansi.Magenta, ansi.Bold), name, fetchedAt.Local().Format(time.DateTime))
}

// WorkflowHeader prints the one-line summary shown above a rendered
// workflow.
func (p *Printer) WorkflowHeader(w *workflow.Workflow) {
	counts := w.StatusCounts()
	var parts []string
	for _, s := range []workflow.Status{workflow.StatusCompleted, workflow.StatusRunning, workflow.StatusWaiting} {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ToLower(string(s))))
		}
	}
	failed := 0
	for s, n := range counts {
		if s.Failed() {
			failed += n
		}
	}
	if failed > 0 {
		parts = append(parts, p.paint(fmt.Sprintf("%d failed", failed), ansi.Red))
	}

	p.printf("%s %s %s\n", p.paint(w.Name, ansi.Bold, ansi.Cyan),
		p.paint(string(w.Status), statusColor(w.Status)),
		p.paint(fmt.Sprintf("(%d groups, %d tasks) %s", len(w.Groups), w.TaskCount(), strings.Join(parts, ", ")), ansi.Dim))
}

// LayoutTable writes placements as an aligned LEVEL/LANE/GROUP table to w,
// ordered by level then lane. Downstream names are listed for reference.
func LayoutTable[N dag.Node](w io.Writer, placements []dag.Placement[N]) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LEVEL\tLANE\tGROUP\tDOWNSTREAM")
	for _, row := range dag.Levels(placements) {
		for _, p := range row {
			down := strings.Join(p.Group.Downstream(), ",")
			if down == "" {
				down = "-"
			}
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", p.Level, p.Lane, p.ID, down)
		}
	}
	return tw.Flush()
}

// HistoryTable writes stored snapshots as an aligned table to w.
func HistoryTable(w io.Writer, snaps []store.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFETCHED\tSTATUS\tGROUPS")
	for _, s := range snaps {
		groups := 0
		if s.Body != nil {
			groups = len(s.Body.Groups)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.ID, s.FetchedAt.Local().Format(time.DateTime), s.Status, groups)
	}
	return tw.Flush()
}
