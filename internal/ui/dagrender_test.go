package ui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/papapumpkin/flowlane/internal/ansi"
	"github.com/papapumpkin/flowlane/internal/dag"
	"github.com/papapumpkin/flowlane/internal/workflow"
)

// groupSpec describes one group of a test graph.
type groupSpec struct {
	id    string
	title string
	down  []string
}

// buildLayout lays out specs and returns the renderer inputs.
func buildLayout(t *testing.T, specs []groupSpec) ([][]string, []dag.Edge, map[string]string) {
	t.Helper()
	groups := make([]dag.Group, len(specs))
	titles := make(map[string]string, len(specs))
	for i, s := range specs {
		groups[i] = dag.Group{Name: s.id, DownstreamGroups: s.down}
		titles[s.id] = s.title
	}
	placements := dag.Transform(groups, dag.WithWarnings(false))

	var levels [][]string
	for _, row := range dag.Levels(placements) {
		ids := make([]string, len(row))
		for i, p := range row {
			ids[i] = p.ID
		}
		levels = append(levels, ids)
	}
	return levels, dag.Edges(placements), titles
}

func TestRender_SingleGroup(t *testing.T) {
	t.Parallel()

	levels, edges, titles := buildLayout(t, []groupSpec{{id: "alpha", title: "Alpha Stage"}})
	out := (&DAGRenderer{Width: 80}).Render(levels, edges, titles)

	if !strings.Contains(out, "Alpha Stage") {
		t.Errorf("output missing title:\n%s", out)
	}
	if !strings.Contains(out, "┌") || !strings.Contains(out, "┘") {
		t.Errorf("output missing box borders:\n%s", out)
	}
}

func TestRender_TwoGroupChain(t *testing.T) {
	t.Parallel()

	levels, edges, titles := buildLayout(t, []groupSpec{
		{id: "a", title: "First", down: []string{"b"}},
		{id: "b", title: "Second"},
	})
	out := (&DAGRenderer{Width: 80}).Render(levels, edges, titles)

	first := strings.Index(out, "First")
	second := strings.Index(out, "Second")
	if first < 0 || second < 0 || first > second {
		t.Errorf("expected First above Second:\n%s", out)
	}
	if !strings.Contains(out, "│\n") {
		t.Errorf("output missing vertical connector:\n%s", out)
	}
}

func TestRender_DiamondLanesLeftToRight(t *testing.T) {
	t.Parallel()

	levels, edges, titles := buildLayout(t, []groupSpec{
		{id: "root", title: "Root", down: []string{"mid2", "mid1"}},
		{id: "mid2", title: "Right", down: []string{"leaf"}},
		{id: "mid1", title: "Left", down: []string{"leaf"}},
		{id: "leaf", title: "Sink"},
	})
	out := (&DAGRenderer{Width: 100}).Render(levels, edges, titles)

	var row string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Left") {
			row = line
		}
	}
	if row == "" || strings.Index(row, "Left") > strings.Index(row, "Right") {
		t.Errorf("lane 0 (mid1) should be drawn left of lane 1 (mid2):\n%s", out)
	}
	if !strings.Contains(out, "┴") {
		t.Errorf("fan-out junction missing:\n%s", out)
	}
	if !strings.Contains(out, "┬") {
		t.Errorf("fan-in junction missing:\n%s", out)
	}
}

func TestRender_CompactMode(t *testing.T) {
	t.Parallel()

	specs := []groupSpec{{id: "root", title: "Root"}}
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("shard-%d", i)
		specs[0].down = append(specs[0].down, id)
		specs = append(specs, groupSpec{id: id, title: id})
	}
	levels, edges, titles := buildLayout(t, specs)
	out := (&DAGRenderer{Width: 120}).Render(levels, edges, titles)

	if !strings.Contains(out, "Level 0: [Root] → [shard-0]") {
		t.Errorf("compact mode should list children with arrows:\n%s", out)
	}
	if !strings.Contains(out, "Level 1: [shard-0]") {
		t.Errorf("compact mode should label levels:\n%s", out)
	}
	if strings.Contains(out, "┌") {
		t.Errorf("compact mode should not draw boxes:\n%s", out)
	}
}

func TestRender_Deterministic(t *testing.T) {
	t.Parallel()

	levels, edges, titles := buildLayout(t, []groupSpec{
		{id: "d", title: "Root", down: []string{"b", "c"}},
		{id: "b", title: "Left", down: []string{"a"}},
		{id: "c", title: "Right", down: []string{"a"}},
		{id: "a", title: "Sink"},
	})
	r := &DAGRenderer{Width: 100}

	first := r.Render(levels, edges, titles)
	for i := 0; i < 10; i++ {
		if got := r.Render(levels, edges, titles); got != first {
			t.Fatalf("render is non-deterministic:\nfirst:\n%s\nattempt %d:\n%s", first, i, got)
		}
	}
}

func TestRender_StatusColors(t *testing.T) {
	t.Parallel()

	levels, edges, titles := buildLayout(t, []groupSpec{
		{id: "a", title: "done", down: []string{"b"}},
		{id: "b", title: "running", down: []string{"c"}},
		{id: "c", title: "failed"},
	})
	statuses := map[string]workflow.Status{
		"a": workflow.StatusCompleted,
		"b": workflow.StatusRunning,
		"c": workflow.StatusFailedExecTimeout,
	}
	r := &DAGRenderer{
		Width:      80,
		UseColor:   true,
		StatusFunc: func(id string) NodeStatus { return NodeStatus{Status: statuses[id]} },
	}
	out := r.Render(levels, edges, titles)

	for _, code := range []string{ansi.Green, ansi.Yellow, ansi.Red} {
		if !strings.Contains(out, code) {
			t.Errorf("output missing color %q:\n%s", code, out)
		}
	}
}

func TestStatusColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status workflow.Status
		want   string
	}{
		{workflow.StatusCompleted, ansi.Green},
		{workflow.StatusRunning, ansi.Yellow},
		{workflow.StatusFailed, ansi.Red},
		{workflow.StatusFailedEvicted, ansi.Red},
		{workflow.StatusFailedUpstream, ansi.Magenta},
		{workflow.StatusScheduling, ansi.Cyan},
		{workflow.StatusWaiting, ansi.Blue},
		{"", ansi.Blue},
	}
	for _, tt := range tests {
		if got := statusColor(tt.status); got != tt.want {
			t.Errorf("statusColor(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestRender_CriticalPathBorders(t *testing.T) {
	t.Parallel()

	levels, edges, titles := buildLayout(t, []groupSpec{
		{id: "a", title: "Start", down: []string{"b"}},
		{id: "b", title: "End"},
		{id: "z", title: "Side"},
	})
	r := &DAGRenderer{Width: 80, CriticalPath: map[string]bool{"a": true, "b": true}}
	out := r.Render(levels, edges, titles)

	if strings.Count(out, "╔") != 2 {
		t.Errorf("want two double-bordered boxes:\n%s", out)
	}
	if strings.Count(out, "┌") != 1 {
		t.Errorf("want one single-bordered box:\n%s", out)
	}
}

func TestRender_CriticalPathCompact(t *testing.T) {
	t.Parallel()

	specs := make([]groupSpec, 0, 12)
	for i := 0; i < 12; i++ {
		specs = append(specs, groupSpec{id: fmt.Sprintf("g%02d", i), title: fmt.Sprintf("g%02d", i)})
	}
	levels, edges, titles := buildLayout(t, specs)
	r := &DAGRenderer{CriticalPath: map[string]bool{"g03": true}}
	out := r.Render(levels, edges, titles)

	if !strings.Contains(out, "[g03]*") {
		t.Errorf("critical path marker missing:\n%s", out)
	}
	if strings.Contains(out, "[g04]*") {
		t.Errorf("non-critical group marked:\n%s", out)
	}
}

func TestRender_Empty(t *testing.T) {
	t.Parallel()

	r := &DAGRenderer{Width: 80}
	if out := r.Render(nil, nil, nil); out != "" {
		t.Errorf("Render(nil) = %q, want empty", out)
	}
	if out := r.Render([][]string{{}}, nil, nil); out != "" {
		t.Errorf("Render(empty level) = %q, want empty", out)
	}
}

func TestRender_CycleLeavesEmptyLevel(t *testing.T) {
	t.Parallel()

	levels, edges, titles := buildLayout(t, []groupSpec{
		{id: "A", title: "A", down: []string{"B"}},
		{id: "B", title: "B", down: []string{"A"}},
	})
	out := (&DAGRenderer{Width: 60}).Render(levels, edges, titles)
	if !strings.Contains(out, "(level 0 empty)") {
		t.Errorf("empty level not shown:\n%s", out)
	}
}

func TestRender_NarrowWidth(t *testing.T) {
	t.Parallel()

	levels, edges, titles := buildLayout(t, []groupSpec{
		{id: "r", title: "Root", down: []string{"a", "b", "c"}},
		{id: "a", title: "aaaaaaaaaaaa"},
		{id: "b", title: "bbbbbbbbbbbb"},
		{id: "c", title: "cccccccccccc"},
	})
	out := (&DAGRenderer{Width: 20}).Render(levels, edges, titles)
	for _, s := range []string{"aaaaaaaaaaaa", "bbbbbbbbbbbb", "cccccccccccc"} {
		if !strings.Contains(out, s) {
			t.Errorf("narrow render lost %q:\n%s", s, out)
		}
	}
}

func TestRender_DefaultWidth(t *testing.T) {
	t.Parallel()

	levels, edges, titles := buildLayout(t, []groupSpec{{id: "x", title: "X"}})
	out := (&DAGRenderer{}).Render(levels, edges, titles)
	first := strings.Split(out, "\n")[0]
	// A single box is centered on column 40 of the default 80.
	if lead := len(first) - len(strings.TrimLeft(first, " ")); lead < 30 {
		t.Errorf("box not centered in default width (lead %d):\n%s", lead, out)
	}
}

func TestRenderWorkflow(t *testing.T) {
	t.Parallel()

	w := &workflow.Workflow{
		Name: "wf",
		Groups: []workflow.Group{
			{Name: "prep", Status: workflow.StatusCompleted, DownstreamGroups: []string{"train"}},
			{Name: "train", Status: workflow.StatusRunning, Tasks: []workflow.Task{{Name: "w0", GPUs: 8}, {Name: "w1", GPUs: 8}}},
			{Name: "lint", Status: workflow.StatusCompleted},
		},
	}
	out := (&DAGRenderer{Width: 80}).RenderWorkflow(w, w.Layout(dag.WithWarnings(false)))

	if !strings.Contains(out, "2 tasks  16 GPU") {
		t.Errorf("task detail missing:\n%s", out)
	}
	if strings.Count(out, "╔") != 2 {
		t.Errorf("critical path prep→train should be double bordered:\n%s", out)
	}
}
