package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/timetable/internal/persist"
)

// TraceSnapshot renders a run as stable text: the scenario name, every
// surface event grouped by step, each step's return and write count and the final stored
// bytes.
func TraceSnapshot(name string, result *Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario %s\n", name)

	writeStep(&buf, result, StepOutcome{Step: 0, Op: "load"})
	for _, o := range result.Steps {
		writeStep(&buf, result, o)
	}

	for _, key := range []string{persist.CellsKey, persist.PreferencesKey} {
		raw, ok := result.Stored[key]
		if !ok {
			raw = "<absent>"
		}
		fmt.Fprintf(&buf, "stored %s %s\n", key, raw)
	}
	return buf.Bytes()
}

func writeStep(buf *bytes.Buffer, result *Result, o StepOutcome) {
	fmt.Fprintf(buf, "step %d %s", o.Step, o.Op)
	if o.Value != nil {
		fmt.Fprintf(buf, " -> %t", *o.Value)
	}
	if o.Error != "" {
		fmt.Fprintf(buf, " -> error: %s", o.Error)
	}
	buf.WriteByte('\n')
	for _, e := range result.StepEvents(o.Step) {
		fmt.Fprintf(buf, "  %03d %s\n", e.Seq, e.Event)
	}
	if o.Writes > 0 {
		fmt.Fprintf(buf, "  wrote %d\n", o.Writes)
	}
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, TraceSnapshot(scenarioName, result))
}
