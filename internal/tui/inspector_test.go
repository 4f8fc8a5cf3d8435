package tui

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/papapumpkin/flowlane/internal/dag"
	"github.com/papapumpkin/flowlane/internal/workflow"
)

func TestFormatWorkflowSummary(t *testing.T) {
	t.Parallel()

	w := trainWorkflow(workflow.StatusRunning)
	w.User = "alice"
	w.Pool = "h100"
	header, body := FormatWorkflowSummary(w, w.Layout(quietLayout...), fixedNow)

	for _, want := range []string{"workflow: train", "RUNNING", "user: alice", "pool: h100"} {
		if !strings.Contains(header, want) {
			t.Errorf("header missing %q: %q", want, header)
		}
	}
	for _, want := range []string{
		"4 groups, 5 tasks, 3 levels",
		"critical path  prep → train-a → eval",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	// Non-terminal statuses come before terminal ones.
	if strings.Index(body, "RUNNING") > strings.Index(body, "COMPLETED") {
		t.Errorf("terminal status listed first:\n%s", body)
	}
}

func TestFormatWorkflowSummary_Empty(t *testing.T) {
	t.Parallel()

	w := &workflow.Workflow{Name: "empty", Status: workflow.StatusPending}
	_, body := FormatWorkflowSummary(w, w.Layout(), fixedNow)
	if !strings.HasPrefix(body, "0 groups, 0 tasks, 0 levels") {
		t.Errorf("body = %q", body)
	}
	if strings.Contains(body, "critical path") {
		t.Errorf("empty workflow reported a critical path:\n%s", body)
	}
}

func TestFormatGroupDetail(t *testing.T) {
	t.Parallel()

	w := trainWorkflow(workflow.StatusRunning)
	placements := w.Layout(quietLayout...)
	idx := dag.NewIndex(placements)
	p, _ := idx.Get("eval")
	g, _ := w.Group("eval")

	header, body := FormatGroupDetail(g, p, idx, 0, fixedNow)
	if !strings.Contains(header, "group: eval") || !strings.Contains(header, "level: 2") || !strings.Contains(header, "lane: 0") {
		t.Errorf("header = %q", header)
	}
	for _, want := range []string{"upstream    train-a, train-b", "downstream  -", selectionIndicator} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}

	g.Tasks = nil
	g.FailureMessage = "OOMKilled"
	_, body = FormatGroupDetail(g, p, idx, 0, fixedNow)
	if !strings.Contains(body, "no tasks") || !strings.Contains(body, "failure     OOMKilled") {
		t.Errorf("body without tasks:\n%s", body)
	}
}

func TestFormatGroupDetail_CursorMarksOneTask(t *testing.T) {
	t.Parallel()

	w := trainWorkflow(workflow.StatusRunning)
	placements := w.Layout(quietLayout...)
	idx := dag.NewIndex(placements)
	p, _ := idx.Get("train-a")
	g, _ := w.Group("train-a")

	_, body := FormatGroupDetail(g, p, idx, 1, fixedNow)
	if n := strings.Count(body, selectionIndicator); n != 1 {
		t.Fatalf("got %d selection markers, want 1:\n%s", n, body)
	}
	for _, line := range strings.Split(body, "\n") {
		if strings.Contains(line, selectionIndicator) && !strings.Contains(line, "train-a-1") {
			t.Errorf("marker on %q, want train-a-1", line)
		}
	}
	if !strings.Contains(body, "gpus        16") {
		t.Errorf("body missing GPU total:\n%s", body)
	}
}

func TestFormatTaskDetail(t *testing.T) {
	t.Parallel()

	start := fixedNow.Add(-90 * time.Second)
	end := fixedNow.Add(-30 * time.Second)
	task := workflow.Task{
		Name: "eval-0", Status: workflow.StatusFailedExecTimeout, Node: "cpu-7", GPUs: 1, RetryID: 2,
		StartTime: &start, EndTime: &end, ExitCode: intPtr(137), FailureMessage: "timed out",
	}
	header, body := FormatTaskDetail(workflow.Group{Name: "eval"}, task, fixedNow)

	if !strings.Contains(header, "task: eval-0") || !strings.Contains(header, "group: eval") {
		t.Errorf("header = %q", header)
	}
	for _, want := range []string{"node        cpu-7", "gpus        1", "retry       2", "duration    1m0s", "exit code   137", "failure     timed out"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestFormatTaskDetail_Bare(t *testing.T) {
	t.Parallel()

	_, body := FormatTaskDetail(workflow.Group{Name: "g"}, workflow.Task{Name: "t", Status: workflow.StatusWaiting}, fixedNow)
	if body != "no details reported" {
		t.Errorf("body = %q", body)
	}
}

func TestSortStatuses(t *testing.T) {
	t.Parallel()

	got := []workflow.Status{
		workflow.StatusFailed, workflow.StatusWaiting, workflow.StatusCompleted, workflow.StatusRunning,
	}
	sortStatuses(got)
	want := []workflow.Status{
		workflow.StatusRunning, workflow.StatusWaiting, workflow.StatusCompleted, workflow.StatusFailed,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sortStatuses = %v, want %v", got, want)
	}
}

func TestLayerString(t *testing.T) {
	t.Parallel()

	for l, want := range map[Layer]string{LayerWorkflow: "workflow", LayerGroup: "group", LayerTask: "task"} {
		if got := l.String(); got != want {
			t.Errorf("Layer(%d).String() = %q, want %q", l, got, want)
		}
	}
}
