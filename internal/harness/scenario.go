package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/timetable/internal/grid"
	"github.com/roach88/timetable/internal/view"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Backend selects the byte store: "memory" (default) or "sqlite".
	Backend string `yaml:"backend,omitempty"`

	// Setup seeds the byte store before the core loads.
	Setup Setup `yaml:"setup,omitempty"`

	// Steps drive the core in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and the trace.
	Assertions []Assertion `yaml:"assertions"`
}

// Backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Setup holds raw persisted records written before the first load.
type Setup struct {
	Cells       *string `yaml:"cells,omitempty"`
	Preferences *string `yaml:"preferences,omitempty"`
	QuotaBytes  int     `yaml:"quota_bytes,omitempty"`
}

// Step is one operation on the core.
type Step struct {
	Op      string  `yaml:"op"`
	Cell    string  `yaml:"cell,omitempty"`
	Index   *int    `yaml:"index,omitempty"`
	Value   *bool   `yaml:"value,omitempty"`
	Enabled *bool   `yaml:"enabled,omitempty"`
	Color   string  `yaml:"color,omitempty"`
	Error   string  `yaml:"error,omitempty"`
	Fields  *Fields `yaml:"fields,omitempty"`

	// Confirm answers the prompt of delete and clear.
	Confirm bool `yaml:"confirm,omitempty"`

	// Expect is the boolean the operation must return (toggle, delete,
	// clear).
	Expect *bool `yaml:"expect,omitempty"`

	// ExpectError is a substring of the error the operation must return.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Fields are staged descriptive values.
type Fields struct {
	Subject string `yaml:"subject,omitempty"`
	Room    string `yaml:"room,omitempty"`
	Time    string `yaml:"time,omitempty"`
}

// Step operations.
const (
	OpOpen          = "open"
	OpStage         = "stage"
	OpCommit        = "commit"
	OpClose         = "close"
	OpToggle        = "toggle"
	OpSetAssignment = "set_assignment"
	OpDelete        = "delete"
	OpEditMode      = "edit_mode"
	OpColor         = "color"
	OpClear         = "clear"
	OpReload        = "reload"
	OpFailWrites    = "fail_writes"
)

// Assertion validates final state or the trace.
type Assertion struct {
	Type string `yaml:"type"`

	Cell string `yaml:"cell,omitempty"`

	// cell
	Subject     *string `yaml:"subject,omitempty"`
	Room        *string `yaml:"room,omitempty"`
	Time        *string `yaml:"time,omitempty"`
	Assignments []int   `yaml:"assignments,omitempty"`

	// display, session
	State    string `yaml:"state,omitempty"`
	Editable *bool  `yaml:"editable,omitempty"`

	// edit_mode, save_error
	Enabled *bool `yaml:"enabled,omitempty"`
	Present *bool `yaml:"present,omitempty"`

	// background
	Color string `yaml:"color,omitempty"`

	// stored
	Key      string  `yaml:"key,omitempty"`
	Equals   *string `yaml:"equals,omitempty"`
	Contains string  `yaml:"contains,omitempty"`

	// render_count, writes
	Step  *int `yaml:"step,omitempty"`
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertCell        = "cell"
	AssertCellAbsent  = "cell_absent"
	AssertDisplay     = "display"
	AssertSession     = "session"
	AssertEditMode    = "edit_mode"
	AssertBackground  = "background"
	AssertStored      = "stored"
	AssertRenderCount = "render_count"
	AssertWrites      = "writes"
	AssertSaveError   = "save_error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	switch s.Backend {
	case "", BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}
	if s.Setup.QuotaBytes < 0 {
		return fmt.Errorf("setup.quota_bytes must be non-negative")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i], s.Backend); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], len(s.Steps)); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, st *Step, backend string) error {
	needCell := func() error {
		if st.Cell == "" {
			return fmt.Errorf("steps[%d]: cell is required for %s", i, st.Op)
		}
		return nil
	}
	needIndex := func() error {
		if err := needCell(); err != nil {
			return err
		}
		if st.Index == nil {
			return fmt.Errorf("steps[%d]: index is required for %s", i, st.Op)
		}
		return nil
	}

	switch st.Op {
	case OpOpen:
		return needCell()
	case OpStage:
		if st.Fields == nil {
			return fmt.Errorf("steps[%d]: fields is required for stage", i)
		}
	case OpToggle:
		return needIndex()
	case OpSetAssignment:
		if err := needIndex(); err != nil {
			return err
		}
		if st.Value == nil {
			return fmt.Errorf("steps[%d]: value is required for set_assignment", i)
		}
	case OpEditMode:
		if st.Enabled == nil {
			return fmt.Errorf("steps[%d]: enabled is required for edit_mode", i)
		}
	case OpColor:
		if st.Color == "" {
			return fmt.Errorf("steps[%d]: color is required for color", i)
		}
	case OpFailWrites:
		if backend == BackendSQLite {
			return fmt.Errorf("steps[%d]: fail_writes needs the memory backend", i)
		}
	case OpCommit, OpClose, OpDelete, OpClear, OpReload:
	case "":
		return fmt.Errorf("steps[%d]: op is required", i)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", i, st.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int) error {
	needCell := func() error {
		if a.Cell == "" {
			return fmt.Errorf("assertions[%d]: cell is required for %s", index, a.Type)
		}
		if _, err := grid.ParseCellID(a.Cell); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		return nil
	}

	switch a.Type {
	case AssertCell:
		if err := needCell(); err != nil {
			return err
		}
		for _, n := range a.Assignments {
			if n < 0 || n >= grid.AssignmentCount {
				return fmt.Errorf("assertions[%d]: assignment index %d out of range", index, n)
			}
		}
	case AssertCellAbsent:
		return needCell()
	case AssertDisplay:
		if err := needCell(); err != nil {
			return err
		}
		if a.State != view.Empty.String() && a.State != view.HasContent.String() {
			return fmt.Errorf("assertions[%d]: state must be empty or has_content", index)
		}
	case AssertSession:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for session", index)
		}
	case AssertEditMode:
		if a.Enabled == nil {
			return fmt.Errorf("assertions[%d]: enabled is required for edit_mode", index)
		}
	case AssertBackground:
		if a.Color == "" {
			return fmt.Errorf("assertions[%d]: color is required for background", index)
		}
	case AssertStored:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for stored", index)
		}
		if a.Equals == nil && a.Contains == "" {
			return fmt.Errorf("assertions[%d]: equals or contains is required for stored", index)
		}
	case AssertRenderCount, AssertWrites:
		if a.Step == nil || a.Count == nil {
			return fmt.Errorf("assertions[%d]: step and count are required for %s", index, a.Type)
		}
		if *a.Step < 0 || *a.Step > steps {
			return fmt.Errorf("assertions[%d]: step %d out of range", index, *a.Step)
		}
	case AssertSaveError:
		if a.Present == nil {
			return fmt.Errorf("assertions[%d]: present is required for save_error", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
