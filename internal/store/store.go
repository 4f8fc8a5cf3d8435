// Package store keeps fetched workflows in a local SQLite database so that
// layouts stay available while the workflow-query API is unreachable.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/flowlane/internal/workflow"
)

// ErrNotFound is returned when no snapshot exists for a workflow.
var ErrNotFound = errors.New("snapshot not found")

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    id         TEXT PRIMARY KEY,
    workflow   TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT '',
    fetched_at TEXT NOT NULL,
    body       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS snapshots_by_workflow ON snapshots (workflow, fetched_at);
`

// Snapshot is one stored copy of a workflow.
type Snapshot struct {
	ID        string             `json:"id"`
	Workflow  string             `json:"workflow"`
	Status    workflow.Status    `json:"status"`
	FetchedAt time.Time          `json:"fetched_at"`
	Body      *workflow.Workflow `json:"body"`
}

// Store is a SQLite-backed snapshot store in WAL mode.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path, creating parent
// directories as needed.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// SQLite has a single writer; one connection keeps the PRAGMAs below in
	// effect for every statement.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Save records w as a new snapshot stamped with the current time.
func (s *Store) Save(ctx context.Context, w *workflow.Workflow) (Snapshot, error) {
	body, err := json.Marshal(w)
	if err != nil {
		return Snapshot{}, fmt.Errorf("store: encode %s: %w", w.Name, err)
	}

	snap := Snapshot{
		ID:        uuid.NewString(),
		Workflow:  w.Name,
		Status:    w.Status,
		FetchedAt: s.now().UTC(),
		Body:      w,
	}
	const q = `INSERT INTO snapshots (id, workflow, status, fetched_at, body) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, snap.ID, snap.Workflow, string(snap.Status),
		snap.FetchedAt.Format(timeLayout), string(body)); err != nil {
		return Snapshot{}, fmt.Errorf("store: save %s: %w", w.Name, err)
	}
	return snap, nil
}

// Latest returns the most recent snapshot of the named workflow, or
// ErrNotFound.
func (s *Store) Latest(ctx context.Context, name string) (Snapshot, error) {
	snaps, err := s.History(ctx, name, 1)
	if err != nil {
		return Snapshot{}, err
	}
	if len(snaps) == 0 {
		return Snapshot{}, fmt.Errorf("store: %s: %w", name, ErrNotFound)
	}
	return snaps[0], nil
}

// History returns up to limit snapshots of the named workflow, newest
// first. A limit of zero or less returns all of them.
func (s *Store) History(ctx context.Context, name string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	const q = `SELECT id, workflow, status, fetched_at, body FROM snapshots
		WHERE workflow = ? ORDER BY fetched_at DESC, rowid DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, name, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query history %s: %w", name, err)
	}
	defer rows.Close()

	var result []Snapshot
	for rows.Next() {
		var (
			snap       Snapshot
			status, ts string
			body       string
		)
		if err := rows.Scan(&snap.ID, &snap.Workflow, &status, &ts, &body); err != nil {
			return nil, fmt.Errorf("store: scan snapshot: %w", err)
		}
		snap.Status = workflow.Status(status)
		if snap.FetchedAt, err = parseTimestamp(ts); err != nil {
			return nil, fmt.Errorf("store: snapshot %s: %w", snap.ID, err)
		}
		var w workflow.Workflow
		if err := json.Unmarshal([]byte(body), &w); err != nil {
			return nil, fmt.Errorf("store: decode snapshot %s: %w", snap.ID, err)
		}
		snap.Body = &w
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate snapshots: %w", err)
	}
	return result, nil
}

// Prune deletes all but the keep newest snapshots of the named workflow and
// returns how many rows were removed.
func (s *Store) Prune(ctx context.Context, name string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	const q = `DELETE FROM snapshots WHERE workflow = ? AND id NOT IN (
		SELECT id FROM snapshots WHERE workflow = ? ORDER BY fetched_at DESC, rowid DESC LIMIT ?)`
	res, err := s.db.ExecContext(ctx, q, name, name, keep)
	if err != nil {
		return 0, fmt.Errorf("store: prune %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: prune rows affected: %w", err)
	}
	return n, nil
}

// Workflows lists the names of every workflow with at least one snapshot.
func (s *Store) Workflows(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT workflow FROM snapshots ORDER BY workflow")
	if err != nil {
		return nil, fmt.Errorf("store: list workflows: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("store: scan workflow: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate workflows: %w", err)
	}
	return names, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// timeLayout is fixed width so that fetched_at sorts chronologically as
// text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{timeLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}
