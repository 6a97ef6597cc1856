package harness

import (
	"fmt"
	"strings"
)

// TraceEvent is one surface callback, tagged with the step that caused it.
// Step 0 is the initial load.
type TraceEvent struct {
	Seq   int    `json:"seq"`
	Step  int    `json:"step"`
	Op    string `json:"op"`
	Event string `json:"event"`
}

// StepOutcome is what a step returned and how many store writes it made.
type StepOutcome struct {
	Step   int    `json:"step"`
	Op     string `json:"op"`
	Value  *bool  `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
	Writes int64  `json:"writes,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds every surface callback in order.
	Trace []TraceEvent `json:"trace"`

	// Steps holds the return of each step.
	Steps []StepOutcome `json:"steps"`

	// Stored holds the final raw bytes of each persisted key. A missing key
	// was never written.
	Stored map[string]string `json:"stored"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Stored: make(map[string]string),
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// StepEvents returns the trace events caused by step.
func (r *Result) StepEvents(step int) []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Step == step {
			out = append(out, e)
		}
	}
	return out
}

// writes reports the accepted store writes of step. Step 0 never writes.
func (r *Result) writes(step int) int64 {
	for _, o := range r.Steps {
		if o.Step == step {
			return o.Writes
		}
	}
	return 0
}

// countRenders counts the render events of step.
func (r *Result) countRenders(step int) int {
	n := 0
	for _, e := range r.StepEvents(step) {
		if strings.HasPrefix(e.Event, "render ") {
			n++
		}
	}
	return n
}
