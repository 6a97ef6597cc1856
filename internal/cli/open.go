package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/timetable/internal/render"
)

// NewOpenCommand creates the open command.
func NewOpenCommand(rootOpts *RootOptions) *cobra.Command {
	var edit bool

	cmd := &cobra.Command{
		Use:   "open <cell>",
		Short: "Show the details of one cell",
		Long: `Open a cell and print its details panel.

The cell opens in view mode once the timetable has content, and in edit mode
for an empty timetable. Use --edit to force edit mode.

Examples:
  timetable open r1-c1
  timetable open r3-c5 --edit --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCell(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, nil, func(a *app) error {
				if cmd.Flags().Changed("edit") {
					a.tt.SetEditModeEnabled(edit)
				}
				if err := a.tt.OpenCell(id); err != nil {
					return WrapExitError(ExitCommandError, "failed to open cell", err)
				}
				defer a.tt.Close()

				out := rootOpts.formatter(cmd)
				if rootOpts.Format == "json" {
					v := a.tt.Session()
					return writeJSON(out, CLIResponse{Status: "ok", Data: v, Session: v.ID})
				}
				return out.Success(a.board.Panel(render.NoFocus))
			})
		},
	}

	cmd.Flags().BoolVar(&edit, "edit", false, "open in edit mode")
	return cmd
}
