package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/flowlane/internal/dag"
	"github.com/papapumpkin/flowlane/internal/server"
	"github.com/papapumpkin/flowlane/internal/ui"
	"github.com/papapumpkin/flowlane/internal/workflow"
)

var layoutCmd = &cobra.Command{
	Use:   "layout <file>",
	Short: "Print the level and lane of every group in a workflow file",
	Long: `Reads a workflow from a JSON, YAML or TOML file and prints the computed
layout as a table ordered by level, then lane. With --json the layout is
written in the same shape the HTTP service returns.`,
	Args: cobra.ExactArgs(1),
	RunE: runLayout,
}

func init() {
	layoutCmd.Flags().Bool("json", false, "output JSON")
	rootCmd.AddCommand(layoutCmd)
}

func runLayout(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	w, err := workflow.LoadFile(args[0])
	if err != nil {
		return err
	}
	placements, diags := s.layout(w)

	asJSON, _ := cmd.Flags().GetBool("json")
	return writeLayout(cmd.OutOrStdout(), w, placements, diags, asJSON)
}

// writeLayout prints placements as a table, or as a layout response when
// asJSON is set.
func writeLayout(out io.Writer, w *workflow.Workflow, placements []dag.Placement[workflow.Group], diags []dag.Diagnostic, asJSON bool) error {
	if !asJSON {
		return ui.LayoutTable(out, placements)
	}
	resp := server.NewLayoutResponse(w.Name, placements, diags)
	resp.Status = w.Status
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("layout: encode: %w", err)
	}
	return nil
}
