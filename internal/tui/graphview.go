package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/papapumpkin/flowlane/internal/dag"
	"github.com/papapumpkin/flowlane/internal/ui"
	"github.com/papapumpkin/flowlane/internal/workflow"
)

// emptyGraphPlaceholder is shown before the first workflow arrives.
const emptyGraphPlaceholder = "waiting for workflow…"

// GraphView renders the workflow DAG in a scrollable viewport and tracks
// the selected group. Groups are ordered by level, then lane.
type GraphView struct {
	renderer ui.DAGRenderer
	viewport viewport.Model
	order    []dag.Placement[workflow.Group]
	cursor   int
	body     string
}

// NewGraphView creates a graph view with the given dimensions.
func NewGraphView(width, height int) GraphView {
	vp := viewport.New(width, height)
	vp.SetContent(emptyGraphPlaceholder)
	return GraphView{
		renderer: ui.DAGRenderer{Width: width, UseColor: true},
		viewport: vp,
	}
}

// SetSize updates the viewport and renderer width.
func (g *GraphView) SetSize(width, height int) {
	g.viewport.Width = width
	g.viewport.Height = height
	g.renderer.Width = width
}

// SetColor toggles ANSI colors in the rendered graph.
func (g *GraphView) SetColor(on bool) {
	g.renderer.UseColor = on
}

// SetLayout redraws the graph for w using placements. The selection stays
// on the same group when it is still present.
func (g *GraphView) SetLayout(w *workflow.Workflow, placements []dag.Placement[workflow.Group]) {
	prev := g.Selected()

	g.order = make([]dag.Placement[workflow.Group], 0, len(placements))
	for _, row := range dag.Levels(placements) {
		g.order = append(g.order, row...)
	}
	g.cursor = 0
	for i, p := range g.order {
		if p.ID == prev {
			g.cursor = i
			break
		}
	}

	if len(g.order) == 0 {
		g.body = "(no groups)"
	} else {
		g.body = g.renderer.RenderWorkflow(w, placements)
	}
	g.viewport.SetContent(g.body)
}

// Selected returns the ID of the selected group, or "" when the graph is
// empty.
func (g GraphView) Selected() string {
	if g.cursor < 0 || g.cursor >= len(g.order) {
		return ""
	}
	return g.order[g.cursor].ID
}

// SelectedPlacement returns the placement of the selected group.
func (g GraphView) SelectedPlacement() (dag.Placement[workflow.Group], bool) {
	if g.cursor < 0 || g.cursor >= len(g.order) {
		return dag.Placement[workflow.Group]{}, false
	}
	return g.order[g.cursor], true
}

// Len returns the number of selectable groups.
func (g GraphView) Len() int { return len(g.order) }

// MoveUp moves the selection to the previous group.
func (g *GraphView) MoveUp() {
	if g.cursor > 0 {
		g.cursor--
	}
}

// MoveDown moves the selection to the next group.
func (g *GraphView) MoveDown() {
	if g.cursor < len(g.order)-1 {
		g.cursor++
	}
}

// View renders the graph viewport followed by the selection line.
func (g GraphView) View() string {
	var b strings.Builder
	b.WriteString(g.viewport.View())
	if p, ok := g.SelectedPlacement(); ok {
		b.WriteString("\n")
		b.WriteString(styleSelectionIndicator.Render(selectionIndicator))
		b.WriteString(styleRowSelected.Render(" " + p.ID))
		b.WriteString(styleRowNormal.Render(fmt.Sprintf("  level %d  lane %d  (%d/%d)", p.Level, p.Lane, g.cursor+1, len(g.order))))
	}
	return b.String()
}
