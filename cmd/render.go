package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/flowlane/internal/dag"
	"github.com/papapumpkin/flowlane/internal/ui"
	"github.com/papapumpkin/flowlane/internal/workflow"
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Draw a workflow file as an ASCII DAG",
	Long: `Draws one row per level with the groups of each level in lane order,
connected to the level below. Workflows with more than ten groups switch to
a compact one-line-per-level form.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().Int("width", 0, "render width in columns (default from config)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	w, err := workflow.LoadFile(args[0])
	if err != nil {
		return err
	}
	s.printer.WorkflowHeader(w)
	placements, _ := s.layout(w)
	return writeRender(cmd.OutOrStdout(), w, placements, renderWidth(cmd, s.cfg.Width), s.cfg.Color)
}

func writeRender(out io.Writer, w *workflow.Workflow, placements []dag.Placement[workflow.Group], width int, color bool) error {
	r := ui.DAGRenderer{Width: width, UseColor: color}
	_, err := fmt.Fprintln(out, r.RenderWorkflow(w, placements))
	return err
}

// renderWidth returns the --width flag when set, else the configured width.
func renderWidth(cmd *cobra.Command, configured int) int {
	if w, _ := cmd.Flags().GetInt("width"); w > 0 {
		return w
	}
	return configured
}
