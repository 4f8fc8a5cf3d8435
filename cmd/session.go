package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/flowlane/internal/config"
	"github.com/papapumpkin/flowlane/internal/dag"
	"github.com/papapumpkin/flowlane/internal/server"
	"github.com/papapumpkin/flowlane/internal/store"
	"github.com/papapumpkin/flowlane/internal/telemetry"
	"github.com/papapumpkin/flowlane/internal/ui"
	"github.com/papapumpkin/flowlane/internal/workflow"
)

// session holds what every subcommand derives from configuration.
type session struct {
	cfg     config.Config
	printer *ui.Printer
	events  *telemetry.Emitter
}

// newSession loads and validates config, applies the persistent flags and
// opens the telemetry file when one is configured.
func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		cfg.Color = false
	}
	if noWarn, _ := cmd.Flags().GetBool("no-warn"); noWarn {
		cfg.WarnOnIssues = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, printer: ui.NewWriter(cmd.ErrOrStderr(), cfg.Color)}
	if cfg.TelemetryPath != "" {
		s.events, err = telemetry.NewEmitter(cfg.TelemetryPath)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *session) Close() {
	if err := s.events.Close(); err != nil {
		s.printer.Warn(err.Error())
	}
}

// reporter routes layout diagnostics for name to stderr and telemetry.
func (s *session) reporter(name string) dag.Reporter {
	return dag.MultiReporter{s.printer, s.events.Reporter(name)}
}

// layout computes the placements of w and records the computation.
func (s *session) layout(w *workflow.Workflow) ([]dag.Placement[workflow.Group], []dag.Diagnostic) {
	var collected dag.Collector
	start := time.Now()
	placements := w.Layout(
		dag.WithWarnings(s.cfg.WarnOnIssues),
		dag.WithReporter(dag.MultiReporter{&collected, s.reporter(w.Name)}),
	)
	diags := collected.Diagnostics()

	_ = s.events.Emit(telemetry.Event{
		Kind:     telemetry.KindLayoutComputed,
		Workflow: w.Name,
		Data: telemetry.LayoutData{
			Groups:      len(w.Groups),
			MaxLevel:    dag.MaxLevel(placements),
			Diagnostics: len(diags),
			DurationUS:  time.Since(start).Microseconds(),
		},
	})
	return placements, diags
}

func (s *session) client() *workflow.Client {
	return workflow.NewClient(s.cfg.APIURL, s.cfg.APIToken, s.cfg.RequestTimeout)
}

func (s *session) openStore(ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, s.cfg.DBPath)
}

// recordingFetcher saves every successful fetch as a snapshot and prunes
// history down to keep. Store failures are reported but never fail the
// fetch.
type recordingFetcher struct {
	fetcher workflow.Fetcher
	snaps   server.Snapshots
	keep    int
	printer *ui.Printer
	events  *telemetry.Emitter
}

func (r *recordingFetcher) Get(ctx context.Context, name string) (*workflow.Workflow, error) {
	w, err := r.fetcher.Get(ctx, name)
	if err != nil {
		_ = r.events.Emit(telemetry.Event{Kind: telemetry.KindFetchFailed, Workflow: name, Data: err.Error()})
		return nil, err
	}
	_ = r.events.Emit(telemetry.Event{Kind: telemetry.KindFetch, Workflow: name})

	snap, err := r.snaps.Save(ctx, w)
	if err != nil {
		r.printer.Warn(fmt.Sprintf("snapshot %s: %v", name, err))
		return w, nil
	}
	_ = r.events.Emit(telemetry.Event{Kind: telemetry.KindSnapshotSaved, Workflow: name, Data: snap.ID})
	if r.keep > 0 {
		if _, err := r.snaps.Prune(ctx, name, r.keep); err != nil {
			r.printer.Warn(fmt.Sprintf("prune %s: %v", name, err))
		}
	}
	return w, nil
}

// fetchOrSnapshot fetches name, falling back to the newest snapshot when
// the API is unreachable. fetchedAt is non-nil only for stale results.
func fetchOrSnapshot(ctx context.Context, f workflow.Fetcher, snaps server.Snapshots, name string) (w *workflow.Workflow, fetchedAt *time.Time, err error) {
	w, fetchErr := f.Get(ctx, name)
	if fetchErr == nil {
		return w, nil, nil
	}
	snap, err := snaps.Latest(ctx, name)
	if err != nil {
		return nil, nil, fetchErr
	}
	return snap.Body, &snap.FetchedAt, nil
}

// isStderrTTY reports whether stderr is attached to a terminal.
func isStderrTTY() bool {
	stat, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
