package ui

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/papapumpkin/flowlane/internal/ansi"
	"github.com/papapumpkin/flowlane/internal/dag"
	"github.com/papapumpkin/flowlane/internal/workflow"
)

// NodeStatus holds the live state of a single group for rendering.
type NodeStatus struct {
	Status workflow.Status
	Detail string // optional second line, e.g. "3 tasks  16 GPU"
}

// DAGRenderer draws a layout as rows of boxes, one row per level and one
// box per lane, joined by Unicode connectors. Layouts with more than
// compactThreshold groups are drawn one line per group instead.
type DAGRenderer struct {
	// Width is the available terminal width in columns.
	Width int

	// UseColor controls whether ANSI escape codes are emitted.
	UseColor bool

	// StatusFunc returns the current status of a group by ID. If nil,
	// every group is drawn as pending.
	StatusFunc func(id string) NodeStatus

	// CriticalPath is the set of group IDs on the critical path. They are
	// drawn with a double border and, with color on, in bold.
	CriticalPath map[string]bool
}

// compactThreshold is the number of groups above which the renderer
// switches from full-box mode to compact single-line mode.
const compactThreshold = 10

// Render produces the drawing. levels holds the group IDs of each level in
// lane order (see dag.Levels). Edges whose endpoints are not both drawn are
// ignored.
func (r *DAGRenderer) Render(levels [][]string, edges []dag.Edge, titles map[string]string) string {
	total := 0
	for _, row := range levels {
		total += len(row)
	}
	if total == 0 {
		return ""
	}

	width := r.Width
	if width <= 0 {
		width = 80
	}

	if total > compactThreshold {
		return r.renderCompact(levels, edges, titles)
	}
	return r.renderFull(levels, edges, titles, width)
}

// RenderWorkflow draws placements computed from w, colored by the live
// status of each group, with the critical path highlighted.
func (r *DAGRenderer) RenderWorkflow(w *workflow.Workflow, placements []dag.Placement[workflow.Group]) string {
	rows := dag.Levels(placements)
	levels := make([][]string, len(rows))
	titles := make(map[string]string, len(placements))
	byID := make(map[string]workflow.Group, len(placements))
	for i, row := range rows {
		for _, p := range row {
			levels[i] = append(levels[i], p.ID)
			titles[p.ID] = p.ID
			byID[p.ID] = p.Group
		}
	}
	// Placements may be reused across polls; statuses come from w.
	for _, g := range w.Groups {
		if _, ok := byID[g.Name]; ok {
			byID[g.Name] = g
		}
	}

	rr := *r
	rr.CriticalPath = make(map[string]bool)
	for _, id := range dag.CriticalPath(placements) {
		rr.CriticalPath[id] = true
	}
	rr.StatusFunc = func(id string) NodeStatus {
		g := byID[id]
		ns := NodeStatus{Status: g.Status}
		if n := len(g.Tasks); n > 0 {
			ns.Detail = fmt.Sprintf("%d tasks", n)
			if gpus := g.GPUs(); gpus > 0 {
				ns.Detail += fmt.Sprintf("  %d GPU", gpus)
			}
		}
		return ns
	}
	return rr.Render(levels, dag.Edges(placements), titles)
}

func (r *DAGRenderer) status(id string) NodeStatus {
	if r.StatusFunc == nil {
		return NodeStatus{Status: workflow.StatusPending}
	}
	return r.StatusFunc(id)
}

// ────────────────────────── full-box mode ──────────────────────────

// nodeBox is the rendered text and position of a single group box.
type nodeBox struct {
	id     string
	lines  []string // rendered lines including the border
	width  int      // widest line in runes
	center int      // horizontal center column in the output
}

func (r *DAGRenderer) renderFull(levels [][]string, edges []dag.Edge, titles map[string]string, width int) string {
	boxes := make(map[string]*nodeBox)
	for _, row := range levels {
		for _, id := range row {
			boxes[id] = r.buildBox(id, titles[id])
		}
	}

	upstream := make(map[string][]string)
	for _, e := range edges {
		if boxes[e.From] != nil && boxes[e.To] != nil {
			upstream[e.To] = append(upstream[e.To], e.From)
		}
	}

	var sb strings.Builder
	for li, ids := range levels {
		if len(ids) == 0 {
			// A level emptied by a cycle still occupies a row.
			sb.WriteString(r.applyColor(fmt.Sprintf("(level %d empty)", li), ansi.Dim))
			sb.WriteByte('\n')
			continue
		}
		row := make([]*nodeBox, len(ids))
		for i, id := range ids {
			row[i] = boxes[id]
		}
		r.layoutRow(row, width)

		if li > 0 {
			r.drawConnectors(&sb, ids, upstream, boxes, width)
		}
		r.drawRow(&sb, row)
	}
	return sb.String()
}

// buildBox creates the box for one group.
//
//	┌───────────────┐
//	│ train-shard-a │
//	│ 2 tasks 16 GPU│   (only when the status carries a detail line)
//	└───────────────┘
func (r *DAGRenderer) buildBox(id, title string) *nodeBox {
	if title == "" {
		title = id
	}
	st := r.status(id)

	content := []string{title}
	if st.Detail != "" {
		content = append(content, st.Detail)
	}

	inner := 6
	for _, line := range content {
		if w := utf8.RuneCountInString(line); w > inner {
			inner = w
		}
	}

	b := r.borderStyle(id)
	tl, tr, bl, br, h, v := string(b[0]), string(b[1]), string(b[2]), string(b[3]), string(b[4]), string(b[5])

	lines := []string{r.colorize(tl+strings.Repeat(h, inner+2)+tr, id, st.Status)}
	for _, c := range content {
		padded := c + strings.Repeat(" ", inner-utf8.RuneCountInString(c))
		lines = append(lines, r.colorize(v+" "+padded+" "+v, id, st.Status))
	}
	lines = append(lines, r.colorize(bl+strings.Repeat(h, inner+2)+br, id, st.Status))

	return &nodeBox{id: id, lines: lines, width: inner + 4}
}

// borderStyle returns the box-drawing runes [TL, TR, BL, BR, H, V].
// Critical-path groups get a double border.
func (r *DAGRenderer) borderStyle(id string) [6]rune {
	if r.CriticalPath[id] {
		return [6]rune{'╔', '╗', '╚', '╝', '═', '║'}
	}
	return [6]rune{'┌', '┐', '└', '┘', '─', '│'}
}

// statusColor maps a workflow status onto an ANSI color.
func statusColor(s workflow.Status) string {
	switch {
	case s == workflow.StatusCompleted:
		return ansi.Green
	case s == workflow.StatusFailedUpstream:
		return ansi.Magenta
	case s.Failed():
		return ansi.Red
	case s == workflow.StatusRunning || s == workflow.StatusInitializing:
		return ansi.Yellow
	case s == workflow.StatusScheduling || s == workflow.StatusProcessing || s == workflow.StatusRescheduled:
		return ansi.Cyan
	default:
		return ansi.Blue
	}
}

func (r *DAGRenderer) colorize(text, id string, s workflow.Status) string {
	if !r.UseColor {
		return text
	}
	if r.CriticalPath[id] {
		return ansi.Wrap(text, ansi.Bold, statusColor(s))
	}
	return ansi.Wrap(text, statusColor(s))
}

// layoutRow spreads the boxes of one level evenly across width. A single
// box is centered.
func (r *DAGRenderer) layoutRow(row []*nodeBox, width int) {
	n := len(row)
	if n == 1 {
		row[0].center = width / 2
		return
	}

	total := 0
	for _, b := range row {
		total += b.width
	}
	gap := 2
	if total < width {
		gap = max((width-total)/(n+1), 2)
	}

	x := gap
	for _, b := range row {
		b.center = x + b.width/2
		x += b.width + gap
	}
}

// drawRow writes the box lines of one level.
func (r *DAGRenderer) drawRow(sb *strings.Builder, row []*nodeBox) {
	height := 0
	for _, b := range row {
		height = max(height, len(b.lines))
	}

	for i := 0; i < height; i++ {
		cursor := 0
		for _, b := range row {
			if i >= len(b.lines) {
				continue
			}
			start := max(b.center-b.width/2, 0)
			if start > cursor {
				sb.WriteString(strings.Repeat(" ", start-cursor))
				cursor = start
			}
			sb.WriteString(b.lines[i])
			cursor = start + ansi.VisibleLen(b.lines[i])
		}
		sb.WriteByte('\n')
	}
}

// drawConnectors draws two connector lines into the level made of ids: a
// drop below every upstream box, then a branch line joining drops to
// arrivals. Upstream groups from any earlier level are connected, so edges
// that skip levels still show.
func (r *DAGRenderer) drawConnectors(sb *strings.Builder, ids []string, upstream map[string][]string, boxes map[string]*nodeBox, width int) {
	type conn struct{ from, to int }
	var conns []conn
	for _, to := range ids {
		for _, from := range upstream[to] {
			conns = append(conns, conn{from: boxes[from].center, to: boxes[to].center})
		}
	}
	if len(conns) == 0 {
		return
	}

	blank := func() []rune {
		line := make([]rune, width)
		for i := range line {
			line[i] = ' '
		}
		return line
	}
	inRange := func(col int) bool { return col >= 0 && col < width }
	flush := func(line []rune) {
		sb.WriteString(strings.TrimRight(string(line), " "))
		sb.WriteByte('\n')
	}

	drops := blank()
	for _, c := range conns {
		if inRange(c.from) {
			drops[c.from] = '│'
		}
	}
	flush(drops)

	branch := blank()
	span := func(lo, hi int) {
		for col := max(lo, 0); col <= hi && col < width; col++ {
			if branch[col] == ' ' {
				branch[col] = '─'
			}
		}
	}

	// Fan-out: one source spreading to several targets.
	fanOut := make(map[int][]int)
	for _, c := range conns {
		fanOut[c.from] = append(fanOut[c.from], c.to)
	}
	for _, from := range sortedKeys(fanOut) {
		tos := fanOut[from]
		sort.Ints(tos)
		if len(tos) == 1 && tos[0] == from {
			if inRange(from) {
				branch[from] = '│'
			}
			continue
		}
		lo, hi := min(tos[0], from), max(tos[len(tos)-1], from)
		span(lo, hi)
		if inRange(from) {
			branch[from] = '┴'
		}
		for _, to := range tos {
			if !inRange(to) {
				continue
			}
			switch to {
			case lo:
				branch[to] = '├'
			case hi:
				branch[to] = '┤'
			default:
				branch[to] = '┬'
			}
		}
	}

	// Fan-in: several sources meeting at one target.
	fanIn := make(map[int][]int)
	for _, c := range conns {
		fanIn[c.to] = append(fanIn[c.to], c.from)
	}
	for _, to := range sortedKeys(fanIn) {
		froms := fanIn[to]
		if len(froms) <= 1 {
			continue
		}
		sort.Ints(froms)
		span(min(froms[0], to), max(froms[len(froms)-1], to))
		if inRange(to) {
			branch[to] = '┬'
		}
	}

	flush(branch)
}

func sortedKeys(m map[int][]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// ────────────────────────── compact mode ──────────────────────────

func (r *DAGRenderer) renderCompact(levels [][]string, edges []dag.Edge, titles map[string]string) string {
	drawn := make(map[string]bool)
	for _, row := range levels {
		for _, id := range row {
			drawn[id] = true
		}
	}
	children := make(map[string][]string)
	for _, e := range edges {
		if drawn[e.From] && drawn[e.To] {
			children[e.From] = append(children[e.From], e.To)
		}
	}
	for k := range children {
		sort.Strings(children[k])
	}

	title := func(id string) string {
		if t := titles[id]; t != "" {
			return t
		}
		return id
	}

	var sb strings.Builder
	for li, row := range levels {
		if li > 0 {
			sb.WriteByte('\n')
		}
		label := fmt.Sprintf("Level %d: ", li)
		sb.WriteString(r.applyColor(label, ansi.Dim))
		if len(row) == 0 {
			sb.WriteString(r.applyColor("(empty)", ansi.Dim))
			sb.WriteByte('\n')
			continue
		}

		indent := strings.Repeat(" ", len(label))
		for ni, id := range row {
			if ni > 0 {
				sb.WriteString(indent)
			}
			t := title(id)
			sb.WriteString(r.compactNode(t, id))

			for ci, child := range children[id] {
				sb.WriteString(" → ")
				sb.WriteString(r.compactNode(title(child), child))
				if ci < len(children[id])-1 {
					sb.WriteByte('\n')
					sb.WriteString(indent + strings.Repeat(" ", utf8.RuneCountInString(t)+2))
				}
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// compactNode renders a single group as [title]. Without color the
// critical path is marked with a trailing asterisk.
func (r *DAGRenderer) compactNode(title, id string) string {
	text := "[" + title + "]"
	if !r.UseColor {
		if r.CriticalPath[id] {
			return text + "*"
		}
		return text
	}
	return r.colorize(text, id, r.status(id).Status)
}

// applyColor wraps text with code when color is on.
func (r *DAGRenderer) applyColor(text, code string) string {
	if !r.UseColor {
		return text
	}
	return ansi.Wrap(text, code)
}
