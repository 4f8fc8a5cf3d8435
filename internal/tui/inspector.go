package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/papapumpkin/flowlane/internal/dag"
	"github.com/papapumpkin/flowlane/internal/workflow"
)

// Layer is the depth of the inspector: workflow, then group, then task.
type Layer int

const (
	LayerWorkflow Layer = iota
	LayerGroup
	LayerTask
)

func (l Layer) String() string {
	switch l {
	case LayerGroup:
		return "group"
	case LayerTask:
		return "task"
	default:
		return "workflow"
	}
}

func field(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteString("  ")
	}
	b.WriteString(styleDetailHeaderLabel.Render(name + ": "))
	b.WriteString(styleDetailHeaderValue.Render(value))
}

func formatStatus(s workflow.Status) string {
	icon, style := statusIcon(s)
	return style.Render(icon + " " + string(s))
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(time.DateTime)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return d.Round(time.Second).String()
}

// FormatWorkflowSummary renders the top inspector layer: the workflow's
// metadata, status tally and layout shape.
func FormatWorkflowSummary(w *workflow.Workflow, placements []dag.Placement[workflow.Group], now time.Time) (header, body string) {
	var h strings.Builder
	field(&h, "workflow", w.Name)
	field(&h, "status", formatStatus(w.Status))
	field(&h, "user", w.User)
	field(&h, "pool", w.Pool)

	var b strings.Builder
	fmt.Fprintf(&b, "%d groups, %d tasks, %d levels\n", len(w.Groups), w.TaskCount(), levelCount(placements))
	if t := formatTime(w.SubmitTime); t != "" {
		fmt.Fprintf(&b, "submitted  %s\n", t)
	}
	if w.StartTime != nil {
		fmt.Fprintf(&b, "running    %s\n", formatDuration(w.Duration(now)))
	}

	counts := w.StatusCounts()
	statuses := make([]workflow.Status, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sortStatuses(statuses)
	for _, s := range statuses {
		icon, style := statusIcon(s)
		fmt.Fprintf(&b, "  %s %d\n", style.Render(fmt.Sprintf("%s %-22s", icon, s)), counts[s])
	}

	if path := dag.CriticalPath(placements); len(path) > 0 {
		fmt.Fprintf(&b, "critical path  %s\n", strings.Join(path, " → "))
	}
	return h.String(), strings.TrimRight(b.String(), "\n")
}

// FormatGroupDetail renders the group layer: status, position, neighbours
// and the task list with the cursor on taskCursor.
func FormatGroupDetail(g workflow.Group, p dag.Placement[workflow.Group], idx *dag.Index[workflow.Group], taskCursor int, now time.Time) (header, body string) {
	var h strings.Builder
	field(&h, "group", g.Name)
	field(&h, "status", formatStatus(g.Status))
	field(&h, "level", fmt.Sprint(p.Level))
	field(&h, "lane", fmt.Sprint(p.Lane))

	var b strings.Builder
	fmt.Fprintf(&b, "upstream    %s\n", listOrDash(idx.Upstream(g.Name)))
	fmt.Fprintf(&b, "downstream  %s\n", listOrDash(idx.Downstream(g.Name)))
	if d := formatDuration(g.Duration(now)); d != "" {
		fmt.Fprintf(&b, "duration    %s\n", d)
	}
	if gpus := g.GPUs(); gpus > 0 {
		fmt.Fprintf(&b, "gpus        %d\n", gpus)
	}
	if g.FailureMessage != "" {
		fmt.Fprintf(&b, "failure     %s\n", g.FailureMessage)
	}

	b.WriteString("\n")
	if len(g.Tasks) == 0 {
		b.WriteString(styleDetailDim.Render("no tasks"))
		return h.String(), b.String()
	}
	for i, t := range g.Tasks {
		icon, style := statusIcon(t.Status)
		line := fmt.Sprintf("%s %s", style.Render(icon), t.Name)
		if i == taskCursor {
			b.WriteString(styleSelectionIndicator.Render(selectionIndicator))
			b.WriteString(styleRowSelected.Render(line))
		} else {
			b.WriteString(" ")
			b.WriteString(styleRowNormal.Render(line))
		}
		if i < len(g.Tasks)-1 {
			b.WriteString("\n")
		}
	}
	return h.String(), b.String()
}

// FormatTaskDetail renders the task layer.
func FormatTaskDetail(g workflow.Group, t workflow.Task, now time.Time) (header, body string) {
	var h strings.Builder
	field(&h, "task", t.Name)
	field(&h, "group", g.Name)
	field(&h, "status", formatStatus(t.Status))

	var b strings.Builder
	row := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%-10s  %s\n", name, value)
		}
	}
	row("node", t.Node)
	if t.GPUs > 0 {
		row("gpus", fmt.Sprint(t.GPUs))
	}
	if t.RetryID > 0 {
		row("retry", fmt.Sprint(t.RetryID))
	}
	row("started", formatTime(t.StartTime))
	row("ended", formatTime(t.EndTime))
	row("duration", formatDuration(t.Duration(now)))
	if t.ExitCode != nil {
		row("exit code", fmt.Sprint(*t.ExitCode))
	}
	row("failure", t.FailureMessage)
	if b.Len() == 0 {
		b.WriteString(styleDetailDim.Render("no details reported"))
	}
	return h.String(), strings.TrimRight(b.String(), "\n")
}

func listOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

func levelCount(placements []dag.Placement[workflow.Group]) int {
	if len(placements) == 0 {
		return 0
	}
	return dag.MaxLevel(placements) + 1
}

// sortStatuses orders terminal statuses last, alphabetically within each
// class.
func sortStatuses(s []workflow.Status) {
	slices.SortFunc(s, func(a, b workflow.Status) int {
		if a.Terminal() != b.Terminal() {
			if a.Terminal() {
				return 1
			}
			return -1
		}
		return strings.Compare(string(a), string(b))
	})
}
