// Package telemetry records a JSONL event stream of layout runs: every
// fetch, computed layout, diagnostic and snapshot fallback becomes one
// structured line, so long-running watch and serve sessions can be audited
// after the fact.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/papapumpkin/flowlane/internal/dag"
)

// Event kinds identify the type of telemetry event.
const (
	KindFetch          = "fetch"
	KindFetchFailed    = "fetch_failed"
	KindLayoutComputed = "layout_computed"
	KindDiagnostic     = "diagnostic"
	KindSnapshotSaved  = "snapshot_saved"
	KindSnapshotFailed = "snapshot_failed"
	KindStaleServed    = "stale_served"
	KindFileChanged    = "file_changed"
)

// Event represents a single telemetry record. Workflow and Group carry the
// context identifiers when they apply.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	Workflow  string    `json:"workflow,omitempty"`
	Group     string    `json:"group,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// LayoutData summarizes one computed layout.
type LayoutData struct {
	Groups      int   `json:"groups"`
	MaxLevel    int   `json:"max_level"`
	Diagnostics int   `json:"diagnostics"`
	DurationUS  int64 `json:"duration_us"`
}

// Emitter writes telemetry events to a JSONL file. It is safe for concurrent
// use by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
	now  func() time.Time
}

// NewEmitter creates a new Emitter that appends JSONL events to the file at
// path, creating the file and its directory if needed.
func NewEmitter(path string) (*Emitter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{
		file: f,
		enc:  json.NewEncoder(f),
		now:  time.Now,
	}, nil
}

// Emit writes a single event. A zero Timestamp is filled with the current
// time. Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if evt.Timestamp.IsZero() {
		evt.Timestamp = e.now().UTC()
	}
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Reporter returns a dag.Reporter that records each diagnostic as a
// KindDiagnostic event tagged with workflow. A nil Emitter yields a
// reporter that discards everything.
func (e *Emitter) Reporter(workflow string) dag.Reporter {
	return dag.ReporterFunc(func(d dag.Diagnostic) {
		_ = e.Emit(Event{
			Kind:     KindDiagnostic,
			Workflow: workflow,
			Group:    d.Group,
			Data:     d,
		})
	})
}

// Close flushes and closes the underlying file. Calling Close on a nil
// Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}
