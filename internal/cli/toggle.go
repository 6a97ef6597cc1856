package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/timetable/internal/cellstore"
	"github.com/roach88/timetable/internal/grid"
)

// ToggleResult is the JSON payload of the toggle command.
type ToggleResult struct {
	Cell  string `json:"cell"`
	Item  int    `json:"item"`
	Value bool   `json:"value"`
	Done  int    `json:"done"`
}

// NewToggleCommand creates the toggle command.
func NewToggleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <cell> <n>",
		Short: "Flip one assignment of a cell",
		Long: fmt.Sprintf(`Flip assignment n (1 to %d) of a cell and save immediately.

Toggling works in view mode as well and does not need an open cell.

Examples:
  timetable toggle r1-c1 3`, grid.AssignmentCount),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCell(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid assignment number %q", args[1]), err)
			}

			return withApp(cmd, rootOpts, nil, func(a *app) error {
				value, err := a.tt.ToggleAssignment(cmd.Context(), id, n-1)
				if errors.Is(err, cellstore.ErrIndexOutOfRange) {
					return WrapExitError(ExitCommandError, fmt.Sprintf("assignment number must be 1 to %d", grid.AssignmentCount), err)
				}
				if err != nil {
					return WrapExitError(ExitFailure, "failed to toggle", err)
				}
				if err := a.saved(); err != nil {
					return err
				}

				rec, _ := a.tt.Cell(id)
				res := ToggleResult{Cell: id.String(), Item: n, Value: value, Done: rec.Assignments.Count()}
				out := rootOpts.formatter(cmd)
				if rootOpts.Format == "json" {
					return out.Success(res)
				}
				mark := "[ ]"
				if value {
					mark = "[x]"
				}
				return out.Success(fmt.Sprintf("%s 課題%d %s (%d/%d done)", id.Label(), n, mark, res.Done, grid.AssignmentCount))
			})
		},
	}
}
