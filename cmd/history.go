package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/flowlane/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:   "history [workflow]",
	Short: "List stored snapshots",
	Long: `Without an argument, lists the workflows that have snapshots. With a
workflow name, lists its snapshots newest first. --prune keeps only the
newest N snapshots of the workflow.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "maximum snapshots to list (0 for all)")
	historyCmd.Flags().Int("prune", -1, "keep only the newest N snapshots")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
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

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		names, err := db.Workflows(ctx)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			s.printer.Info("no snapshots stored in " + s.cfg.DBPath)
		}
		for _, n := range names {
			fmt.Fprintln(out, n)
		}
		return nil
	}

	name := args[0]
	if keep, _ := cmd.Flags().GetInt("prune"); keep >= 0 {
		removed, err := db.Prune(ctx, name, keep)
		if err != nil {
			return err
		}
		s.printer.Success(fmt.Sprintf("pruned %d snapshots of %s", removed, name))
	}

	limit, _ := cmd.Flags().GetInt("limit")
	snaps, err := db.History(ctx, name, limit)
	if err != nil {
		return err
	}
	return ui.HistoryTable(out, snaps)
}
