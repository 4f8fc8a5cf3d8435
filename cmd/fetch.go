package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/flowlane/internal/telemetry"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <workflow>",
	Short: "Fetch a workflow from the API, store a snapshot and print its layout",
	Long: `Fetches the named workflow from the workflow-query API and stores the
result in the snapshot database, keeping the newest history_keep snapshots.
When the API cannot be reached the newest stored snapshot is shown instead
and marked as stale.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Bool("json", false, "output JSON")
	fetchCmd.Flags().Bool("render", false, "draw the DAG instead of a table")
	fetchCmd.Flags().Int("width", 0, "render width in columns (default from config)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	db, err := s.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	name := args[0]
	fetcher := &recordingFetcher{
		fetcher: s.client(),
		snaps:   db,
		keep:    s.cfg.HistoryKeep,
		printer: s.printer,
		events:  s.events,
	}
	w, fetchedAt, err := fetchOrSnapshot(ctx, fetcher, db, name)
	if err != nil {
		s.printer.FetchFailed(name, err)
		return err
	}
	if fetchedAt != nil {
		s.printer.Stale(name, *fetchedAt)
		_ = s.events.Emit(telemetry.Event{Kind: telemetry.KindStaleServed, Workflow: name, Data: fetchedAt})
	}

	s.printer.WorkflowHeader(w)
	placements, diags := s.layout(w)

	out := cmd.OutOrStdout()
	if render, _ := cmd.Flags().GetBool("render"); render {
		return writeRender(out, w, placements, renderWidth(cmd, s.cfg.Width), s.cfg.Color)
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	return writeLayout(out, w, placements, diags, asJSON)
}
