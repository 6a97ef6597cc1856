package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/timetable/internal/grid"
)

// BoardResult is the JSON payload of the show command.
type BoardResult struct {
	EditMode   bool       `json:"edit_mode"`
	Background string     `json:"background"`
	Cells      []cellJSON `json:"cells"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Render the weekly board",
		Long: `Render the Monday to Friday, six-period board.

Cells with content show a marker; use "open" to see the details of one cell.

Examples:
  timetable show
  timetable show --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, nil, func(a *app) error {
				out := rootOpts.formatter(cmd)
				if rootOpts.Format == "json" {
					return out.Success(boardResult(a))
				}
				return out.Success(a.board.Grid())
			})
		},
	}
}

func boardResult(a *app) BoardResult {
	snap := a.tt.Snapshot()
	res := BoardResult{
		EditMode:   a.tt.EditModeEnabled(),
		Background: a.tt.Preferences().BackgroundColor,
		Cells:      make([]cellJSON, 0, len(snap)),
	}
	for _, id := range grid.AllCellIDs() {
		if rec, ok := snap[id]; ok {
			res.Cells = append(res.Cells, newCellJSON(id, rec))
		}
	}
	return res
}
