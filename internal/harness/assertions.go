package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/timetable/internal/grid"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual)
}

func mismatch(expected, actual any) error {
	return &AssertionError{Expected: fmt.Sprint(expected), Actual: fmt.Sprint(actual)}
}

// checkStep compares a step outcome with its expect and expect_error.
func checkStep(result *Result, n int, st Step, out StepOutcome) {
	switch {
	case st.ExpectError != "" && out.Error == "":
		result.AddError("step %d %s: expected error containing %q, got none", n, st.Op, st.ExpectError)
	case st.ExpectError != "" && !strings.Contains(out.Error, st.ExpectError):
		result.AddError("step %d %s: expected error containing %q, got %q", n, st.Op, st.ExpectError, out.Error)
	case st.ExpectError == "" && out.Error != "":
		result.AddError("step %d %s: unexpected error: %s", n, st.Op, out.Error)
	}

	if st.Expect != nil {
		switch {
		case out.Value == nil:
			result.AddError("step %d %s: expected %t, operation returned no value", n, st.Op, *st.Expect)
		case *out.Value != *st.Expect:
			result.AddError("step %d %s: expected %t, got %t", n, st.Op, *st.Expect, *out.Value)
		}
	}
}

// evaluate checks one assertion against the final state of the run.
func (h *Harness) evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertCell:
		return h.assertCell(a)

	case AssertCellAbsent:
		id, err := grid.ParseCellID(a.Cell)
		if err != nil {
			return err
		}
		if rec, ok := h.tt.Cell(id); ok {
			return mismatch("no record", fmt.Sprintf("%+v", rec))
		}

	case AssertDisplay:
		id, err := grid.ParseCellID(a.Cell)
		if err != nil {
			return err
		}
		d := h.surface.Cell(id)
		if d.State.String() != a.State {
			return mismatch(a.State, d.State)
		}
		if a.Editable != nil && d.Editable != *a.Editable {
			return mismatch(fmt.Sprintf("editable=%t", *a.Editable), fmt.Sprintf("editable=%t", d.Editable))
		}

	case AssertSession:
		v := h.tt.Session()
		if v.State.String() != a.State {
			return mismatch(a.State, v.State)
		}
		if a.Cell != "" && v.Cell != a.Cell {
			return mismatch(a.Cell, v.Cell)
		}

	case AssertEditMode:
		if got := h.tt.EditModeEnabled(); got != *a.Enabled {
			return mismatch(*a.Enabled, got)
		}

	case AssertBackground:
		if got := h.surface.Background(); got != a.Color {
			return mismatch(a.Color, got)
		}
		if got := h.tt.Preferences().BackgroundColor; got != a.Color {
			return mismatch(a.Color, got)
		}

	case AssertStored:
		raw, ok := result.Stored[a.Key]
		if !ok {
			return mismatch(fmt.Sprintf("key %s", a.Key), "nothing stored")
		}
		if a.Equals != nil && raw != *a.Equals {
			return mismatch(*a.Equals, raw)
		}
		if a.Contains != "" && !strings.Contains(raw, a.Contains) {
			return mismatch(fmt.Sprintf("bytes containing %s", a.Contains), raw)
		}

	case AssertRenderCount:
		if got := result.countRenders(*a.Step); got != *a.Count {
			return mismatch(fmt.Sprintf("%d renders in step %d", *a.Count, *a.Step), got)
		}

	case AssertWrites:
		if got := result.writes(*a.Step); got != int64(*a.Count) {
			return mismatch(fmt.Sprintf("%d writes in step %d", *a.Count, *a.Step), got)
		}

	case AssertSaveError:
		err := h.tt.LastSaveError()
		if (err != nil) != *a.Present {
			return mismatch(fmt.Sprintf("save error present=%t", *a.Present), fmt.Sprintf("%v", err))
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func (h *Harness) assertCell(a Assertion) error {
	id, err := grid.ParseCellID(a.Cell)
	if err != nil {
		return err
	}
	rec, ok := h.tt.Cell(id)
	if !ok {
		return mismatch("a record", "none")
	}
	for _, f := range []struct {
		name string
		want *string
		got  string
	}{
		{"subject", a.Subject, rec.Subject},
		{"room", a.Room, rec.Room},
		{"time", a.Time, rec.Time},
	} {
		if f.want != nil && *f.want != f.got {
			return mismatch(fmt.Sprintf("%s %q", f.name, *f.want), fmt.Sprintf("%q", f.got))
		}
	}
	if a.Assignments != nil {
		want := append([]int(nil), a.Assignments...)
		slices.Sort(want)
		if got := checked(rec.Assignments); !slices.Equal(want, got) {
			return mismatch(fmt.Sprintf("assignments %v", want), fmt.Sprintf("%v", got))
		}
	}
	return nil
}

// checked lists the indices of checked assignments.
func checked(a grid.Assignments) []int {
	out := []int{}
	for i, v := range a {
		if v {
			out = append(out, i)
		}
	}
	return out
}
