package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/papapumpkin/flowlane/internal/workflow"
)

// testStore opens a temporary store whose clock advances one second per
// call.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "snapshots.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open(%q): %v", path, err)
	}
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func wf(name string, status workflow.Status) *workflow.Workflow {
	return &workflow.Workflow{
		Name:   name,
		Status: status,
		Groups: []workflow.Group{
			{Name: "prep", Status: status, DownstreamGroups: []string{"train"}},
			{Name: "train", Status: status},
		},
	}
}

func TestOpen_WALMode(t *testing.T) {
	t.Parallel()
	s := testStore(t)

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestOpen_Reopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshots.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Save(ctx, wf("a", workflow.StatusRunning)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.Latest(ctx, "a"); err != nil {
		t.Errorf("Latest after reopen: %v", err)
	}
}

func TestSaveAndLatest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := testStore(t)

	first, err := s.Save(ctx, wf("train", workflow.StatusRunning))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := uuid.Parse(first.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", first.ID, err)
	}
	second, err := s.Save(ctx, wf("train", workflow.StatusCompleted))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := s.Save(ctx, wf("other", workflow.StatusFailed)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Latest(ctx, "train")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.ID != second.ID {
		t.Errorf("Latest ID = %s, want %s", got.ID, second.ID)
	}
	if got.Status != workflow.StatusCompleted {
		t.Errorf("Latest status = %s", got.Status)
	}
	if !got.FetchedAt.Equal(second.FetchedAt) {
		t.Errorf("FetchedAt = %v, want %v", got.FetchedAt, second.FetchedAt)
	}
	if got.Body == nil || len(got.Body.Groups) != 2 || got.Body.Groups[0].DownstreamGroups[0] != "train" {
		t.Errorf("Body round trip lost groups: %+v", got.Body)
	}
}

func TestLatest_NotFound(t *testing.T) {
	t.Parallel()
	s := testStore(t)

	_, err := s.Latest(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHistoryAndPrune(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := testStore(t)

	var ids []string
	for i := 0; i < 5; i++ {
		snap, err := s.Save(ctx, wf("train", workflow.StatusRunning))
		if err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
		ids = append(ids, snap.ID)
	}
	s.Save(ctx, wf("other", workflow.StatusRunning))

	all, err := s.History(ctx, "train", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("History(0) returned %d, want 5", len(all))
	}
	for i, snap := range all {
		if want := ids[len(ids)-1-i]; snap.ID != want {
			t.Errorf("History[%d] = %s, want %s (newest first)", i, snap.ID, want)
		}
	}

	two, err := s.History(ctx, "train", 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(two) != 2 || two[0].ID != ids[4] {
		t.Errorf("History(2) = %d snapshots", len(two))
	}

	removed, err := s.Prune(ctx, "train", 2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 3 {
		t.Errorf("Prune removed %d, want 3", removed)
	}
	left, _ := s.History(ctx, "train", 0)
	if len(left) != 2 || left[0].ID != ids[4] || left[1].ID != ids[3] {
		t.Errorf("after prune: %d snapshots", len(left))
	}

	if others, _ := s.History(ctx, "other", 0); len(others) != 1 {
		t.Errorf("Prune touched another workflow: %d left", len(others))
	}

	removed, err = s.Prune(ctx, "train", 0)
	if err != nil || removed != 2 {
		t.Errorf("Prune(0) = %d, %v; want 2", removed, err)
	}
}

func TestWorkflows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := testStore(t)

	for _, name := range []string{"zeta", "alpha", "zeta"} {
		if _, err := s.Save(ctx, wf(name, workflow.StatusRunning)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	names, err := s.Workflows(ctx)
	if err != nil {
		t.Fatalf("Workflows: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("Workflows = %v", names)
	}
}
