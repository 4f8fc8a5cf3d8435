package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/flowlane/internal/store"
	"github.com/papapumpkin/flowlane/internal/telemetry"
	"github.com/papapumpkin/flowlane/internal/tui"
	"github.com/papapumpkin/flowlane/internal/ui"
	"github.com/papapumpkin/flowlane/internal/workflow"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <workflow|file>",
	Short: "Open the interactive inspector",
	Long: `Opens a live DAG view with a drill-down inspector for the workflow, its
groups and their tasks. A path to a JSON, YAML or TOML file is watched and
reloaded on every save; anything else is treated as a workflow name and
polled from the API while it is active, starting from the newest stored
snapshot when one exists.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if !isStderrTTY() {
		return fmt.Errorf("flowlane inspect requires a TTY (terminal)")
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	target := args[0]

	// Diagnostics go to telemetry only; stderr belongs to the TUI.
	opts := tui.Options{
		Name:     target,
		Warn:     s.cfg.WarnOnIssues,
		Reporter: s.events.Reporter(target),
		NoColor:  !s.cfg.Color,
	}

	if isWorkflowFile(target) {
		watcher, err := workflow.NewWatcher(target)
		if err != nil {
			return fmt.Errorf("inspect: watch %s: %w", target, err)
		}
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("inspect: watch %s: %w", target, err)
		}
		defer watcher.Stop()

		load := func() (*workflow.Workflow, error) { return workflow.LoadFile(target) }
		opts.Refresh = func(context.Context) (*workflow.Workflow, error) { return load() }
		return tui.Run(ctx, tui.NewAppModel(opts), tui.FileFeed(watcher, load, time.Now))
	}

	db, err := s.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	fetcher := &recordingFetcher{
		fetcher: s.client(),
		snaps:   db,
		keep:    s.cfg.HistoryKeep,
		printer: ui.NewWriter(io.Discard, false),
		events:  s.events,
	}
	opts.Refresh = func(ctx context.Context) (*workflow.Workflow, error) { return fetcher.Get(ctx, target) }
	poller := workflow.NewPoller(fetcher, s.cfg.PollInterval)
	return tui.Run(ctx, tui.NewAppModel(opts), snapshotThenPoll(db, s.events, poller, target))
}

// snapshotThenPoll shows the newest stored snapshot, if any, while the first
// fetch is in flight, then polls.
func snapshotThenPoll(db *store.Store, events *telemetry.Emitter, p *workflow.Poller, name string) tui.Feed {
	poll := tui.PollFeed(p, name)
	return func(ctx context.Context, send func(tea.Msg)) error {
		if snap, err := db.Latest(ctx, name); err == nil {
			_ = events.Emit(telemetry.Event{Kind: telemetry.KindStaleServed, Workflow: name, Data: snap.FetchedAt})
			send(tui.MsgStale{Workflow: snap.Body, FetchedAt: snap.FetchedAt})
		}
		return poll(ctx, send)
	}
}

// isWorkflowFile reports whether target names an existing file with a
// supported extension.
func isWorkflowFile(target string) bool {
	if _, err := workflow.FormatFromPath(target); err != nil {
		return false
	}
	info, err := os.Stat(target)
	return err == nil && !info.IsDir()
}
