package tui

import (
	"strings"
	"testing"

	"github.com/papapumpkin/flowlane/internal/workflow"
)

func laidOutGraph(w *workflow.Workflow) GraphView {
	g := NewGraphView(80, 20)
	g.SetColor(false)
	g.SetLayout(w, w.Layout(quietLayout...))
	return g
}

func TestGraphView_OrderIsLevelThenLane(t *testing.T) {
	t.Parallel()

	g := laidOutGraph(trainWorkflow(workflow.StatusRunning))
	var got []string
	for i := 0; i < g.Len(); i++ {
		got = append(got, g.Selected())
		g.MoveDown()
	}
	want := []string{"prep", "train-a", "train-b", "eval"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("selection order = %v, want %v", got, want)
	}
}

func TestGraphView_SelectionSurvivesRelayout(t *testing.T) {
	t.Parallel()

	w := trainWorkflow(workflow.StatusRunning)
	g := laidOutGraph(w)
	g.MoveDown()
	g.MoveDown()
	if g.Selected() != "train-b" {
		t.Fatalf("setup: selected %q", g.Selected())
	}

	// A new root shifts every index; the selection must follow the name.
	w.Groups = append([]workflow.Group{{Name: "fetch", DownstreamGroups: []string{"prep"}}}, w.Groups...)
	g.SetLayout(w, w.Layout(quietLayout...))
	if g.Selected() != "train-b" {
		t.Errorf("selection after relayout = %q, want train-b", g.Selected())
	}
}

func TestGraphView_View(t *testing.T) {
	t.Parallel()

	g := NewGraphView(80, 20)
	if !strings.Contains(g.View(), emptyGraphPlaceholder) {
		t.Errorf("fresh view missing placeholder:\n%s", g.View())
	}

	g = laidOutGraph(trainWorkflow(workflow.StatusRunning))
	g.MoveDown()
	g.MoveDown()
	view := g.View()
	for _, want := range []string{"prep", "train-a", "eval", "train-b  level 1  lane 1  (3/4)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestGraphView_Empty(t *testing.T) {
	t.Parallel()

	g := laidOutGraph(&workflow.Workflow{Name: "empty"})
	if g.Selected() != "" || g.Len() != 0 {
		t.Errorf("empty graph selected %q len %d", g.Selected(), g.Len())
	}
	if _, ok := g.SelectedPlacement(); ok {
		t.Error("empty graph has a selected placement")
	}
	g.MoveDown()
	g.MoveUp()
	if !strings.Contains(g.View(), "(no groups)") {
		t.Errorf("empty view = %q", g.View())
	}
}
