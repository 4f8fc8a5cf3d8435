package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/flowlane/internal/telemetry"
	"github.com/papapumpkin/flowlane/internal/workflow"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-render a workflow file whenever it changes",
	Long: `Renders the workflow file, then watches it and renders again after every
save. Parse errors are reported and watching continues, so the file can be
edited into shape. Stops on interrupt.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Int("width", 0, "render width in columns (default from config)")
	watchCmd.Flags().Bool("table", false, "print the layout table instead of the DAG")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	path := args[0]
	if _, err := workflow.FormatFromPath(path); err != nil {
		return err
	}

	w, err := workflow.NewWatcher(path)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("watch: %s: %w", path, err)
	}
	defer w.Stop()

	asTable, _ := cmd.Flags().GetBool("table")
	width := renderWidth(cmd, s.cfg.Width)
	show := func(out io.Writer, wf *workflow.Workflow) error {
		s.printer.WorkflowHeader(wf)
		placements, diags := s.layout(wf)
		if asTable {
			return writeLayout(out, wf, placements, diags, false)
		}
		return writeRender(out, wf, placements, width, s.cfg.Color)
	}

	s.printer.Info(fmt.Sprintf("watching %s (ctrl+c to stop)", path))
	return watchLoop(cmd.Context(), w.Changes, s, path, cmd.OutOrStdout(), show)
}

// watchLoop renders path once and again after each change until ctx is
// done or changes is closed.
func watchLoop(ctx context.Context, changes <-chan workflow.Change, s *session, path string, out io.Writer, show func(io.Writer, *workflow.Workflow) error) error {
	render := func() error {
		wf, err := workflow.LoadFile(path)
		if err != nil {
			s.printer.Error(err.Error())
			return nil
		}
		return show(out, wf)
	}
	if err := render(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			_ = s.events.Emit(telemetry.Event{Kind: telemetry.KindFileChanged, Data: c})
			if c.Removed {
				s.printer.Warn(path + " was removed; waiting for it to come back")
				continue
			}
			fmt.Fprintln(out)
			if err := render(); err != nil {
				return err
			}
		}
	}
}
