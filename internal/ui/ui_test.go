package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/papapumpkin/flowlane/internal/dag"
	"github.com/papapumpkin/flowlane/internal/store"
	"github.com/papapumpkin/flowlane/internal/workflow"
)

func TestPrinter_Lines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		print func(p *Printer)
		want  string
	}{
		{"error", func(p *Printer) { p.Error("boom") }, "error: boom\n"},
		{"warn", func(p *Printer) { p.Warn("careful") }, "warning: careful\n"},
		{"info", func(p *Printer) { p.Info("fyi") }, "fyi\n"},
		{"success", func(p *Printer) { p.Success("saved") }, "✓ saved\n"},
		{"fetch failed", func(p *Printer) { p.FetchFailed("wf", errors.New("timeout")) }, "✗ fetch wf: timeout\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			tt.print(NewWriter(&buf, false))
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrinter_ColorToggle(t *testing.T) {
	t.Parallel()

	var plain, colored bytes.Buffer
	NewWriter(&plain, false).Error("x")
	NewWriter(&colored, true).Error("x")
	if strings.Contains(plain.String(), "\033[") {
		t.Errorf("plain output has escapes: %q", plain.String())
	}
	if !strings.Contains(colored.String(), "\033[") {
		t.Errorf("colored output lacks escapes: %q", colored.String())
	}
}

func TestPrinter_ReportsDiagnostics(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWriter(&buf, false)
	dag.Transform([]dag.Group{{Name: "a", DownstreamGroups: []string{"ghost"}}}, dag.WithReporter(p))

	want := "warning: group \"a\" lists unknown downstream group \"ghost\"\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestPrinter_WorkflowHeader(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := &workflow.Workflow{
		Name:   "wf",
		Status: workflow.StatusRunning,
		Groups: []workflow.Group{
			{Name: "a", Status: workflow.StatusCompleted, Tasks: []workflow.Task{{Name: "t"}}},
			{Name: "b", Status: workflow.StatusFailedEvicted},
			{Name: "c", Status: workflow.StatusFailed},
		},
	}
	NewWriter(&buf, false).WorkflowHeader(w)

	out := buf.String()
	for _, want := range []string{"wf RUNNING", "3 groups, 1 tasks", "1 completed", "2 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("header %q missing %q", out, want)
		}
	}
}

func TestPrinter_Stale(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWriter(&buf, false).Stale("wf", time.Now())
	if !strings.HasPrefix(buf.String(), "◆ stale wf from snapshot taken ") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestLayoutTable(t *testing.T) {
	t.Parallel()

	placements := dag.Transform([]dag.Group{
		{Name: "root", DownstreamGroups: []string{"mid2", "mid1"}},
		{Name: "mid2"},
		{Name: "mid1"},
	})

	var buf bytes.Buffer
	if err := LayoutTable(&buf, placements); err != nil {
		t.Fatalf("LayoutTable: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3:\n%s", len(lines), buf.String())
	}
	if f := strings.Fields(lines[0]); strings.Join(f, " ") != "LEVEL LANE GROUP DOWNSTREAM" {
		t.Errorf("header = %q", lines[0])
	}
	wantRows := [][]string{
		{"0", "0", "root", "mid2,mid1"},
		{"1", "0", "mid1", "-"},
		{"1", "1", "mid2", "-"},
	}
	for i, want := range wantRows {
		if got := strings.Fields(lines[i+1]); strings.Join(got, " ") != strings.Join(want, " ") {
			t.Errorf("row %d = %v, want %v", i, got, want)
		}
	}
}

func TestHistoryTable(t *testing.T) {
	t.Parallel()

	snaps := []store.Snapshot{
		{ID: "id-2", Status: workflow.StatusCompleted, FetchedAt: time.Now(), Body: &workflow.Workflow{Groups: make([]workflow.Group, 3)}},
		{ID: "id-1", Status: workflow.StatusRunning, FetchedAt: time.Now()},
	}
	var buf bytes.Buffer
	if err := HistoryTable(&buf, snaps); err != nil {
		t.Fatalf("HistoryTable: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ID", "id-2", "COMPLETED", "id-1", "RUNNING"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if f := strings.Fields(lines[1]); f[len(f)-1] != "3" {
		t.Errorf("group count = %v, want 3", f)
	}
}
