// Package harness runs YAML conformance scenarios against the timetable core.
//
// A scenario seeds the byte store, drives the core through a list of steps
// and checks assertions on the final state. Every surface callback is
// recorded per step, so a run yields a deterministic trace that can be
// pinned by a golden file.
//
// # Scenario Format
//
//	name: commit_subject
//	description: "Opening an empty cell and saving a subject stores it"
//	backend: memory          # or sqlite
//	setup:
//	  cells: '{"r2-c3":{"subject":"Art"}}'
//	  preferences: '{"backgroundColor":"#000000"}'
//	  quota_bytes: 0
//	steps:
//	  - op: open
//	    cell: r1-c1
//	  - op: stage
//	    fields: { subject: Math }
//	  - op: commit
//	assertions:
//	  - type: cell
//	    cell: r1-c1
//	    subject: Math
//	  - type: display
//	    cell: r1-c1
//	    state: has_content
//
// # Steps
//
//   - open, close, commit: session transitions on cell
//   - stage: replace the staged fields
//   - toggle, set_assignment: checklist mutations (index is 0-based)
//   - delete, clear: confirmed actions; confirm answers the prompt
//   - edit_mode, color: global settings
//   - reload: rebuild the core over the same byte store
//   - fail_writes: make the byte store reject writes (memory backend only)
//
// A step may set expect_error to a substring the returned error must contain,
// or expect to a boolean the operation must return.
//
// # Assertion Types
//
//   - cell: the cell is present with the given fields and checked assignments
//   - cell_absent: the cell has no record
//   - display: the latest rendered display state and editability
//   - session: the session state and open cell
//   - edit_mode: the global edit-mode flag
//   - background: the applied background color
//   - stored: the raw bytes stored under key equal or contain a value
//   - render_count: how many cells a step rendered
//   - writes: how many store writes a step made
//   - save_error: whether the last write failed
//
// Session ids come from a sequence generator and the SQLite backend uses a
// fresh temporary file, so traces are identical across runs.
package harness
