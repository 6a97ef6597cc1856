package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/timetable/internal/core"
	"github.com/roach88/timetable/internal/grid"
	"github.com/roach88/timetable/internal/kv"
	"github.com/roach88/timetable/internal/logging"
	"github.com/roach88/timetable/internal/persist"
	"github.com/roach88/timetable/internal/session"
	"github.com/roach88/timetable/internal/testutil"
)

// ledger is a byte store that counts its accepted writes.
type ledger interface {
	persist.ByteStore
	WriteSeq(ctx context.Context) (int64, error)
	Entries(ctx context.Context) ([]kv.Entry, error)
}

// Harness holds the collaborators of one scenario run.
type Harness struct {
	store   ledger
	mem     *kv.Memory // nil for the sqlite backend
	surface *testutil.RecordingSurface
	confirm *testutil.ScriptedConfirmer
	ids     *session.SequenceGenerator
	logger  *slog.Logger
	tt      *core.Timetable

	recorded int
	seq      int
}

// Run executes a scenario and evaluates its assertions.
// An error is returned only when the scenario could not be executed; failed
// expectations are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, logging.Discard())
}

// RunWithLogger is Run with a caller-provided logger for the core.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	ctx := context.Background()

	var opts []kv.Option
	if scenario.Setup.QuotaBytes > 0 {
		opts = append(opts, kv.WithQuota(scenario.Setup.QuotaBytes))
	}

	h := &Harness{
		surface: testutil.NewRecordingSurface(),
		confirm: testutil.NewScriptedConfirmer(),
		ids:     session.NewSequenceGenerator("s"),
		logger:  logger,
	}

	switch scenario.Backend {
	case BackendSQLite:
		dir, err := os.MkdirTemp("", "timetable-harness-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp dir: %w", err)
		}
		defer os.RemoveAll(dir)

		st, err := kv.Open(filepath.Join(dir, "harness.db"), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()
		h.store = st
	default:
		h.mem = kv.NewMemory(opts...)
		h.store = h.mem
	}

	if err := h.seed(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	result := NewResult()
	if err := h.load(ctx); err != nil {
		return nil, err
	}
	h.record(result, 0, "load")

	for i, step := range scenario.Steps {
		n := i + 1
		before, err := h.store.WriteSeq(ctx)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", n, step.Op, err)
		}
		outcome, err := h.execute(ctx, step)
		if err != nil && outcome.Error == "" {
			return nil, fmt.Errorf("step %d (%s): %w", n, step.Op, err)
		}
		after, err := h.store.WriteSeq(ctx)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", n, step.Op, err)
		}
		outcome.Writes = after - before
		outcome.Step = n
		outcome.Op = step.Op
		result.Steps = append(result.Steps, outcome)
		h.record(result, n, step.Op)
		checkStep(result, n, step, outcome)
	}

	entries, err := h.store.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list store: %w", err)
	}
	for _, e := range entries {
		raw, ok, err := h.store.Get(ctx, e.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Key, err)
		}
		if ok {
			result.Stored[e.Key] = string(raw)
		}
	}

	for i, a := range scenario.Assertions {
		if err := h.evaluate(result, a); err != nil {
			result.AddError("assertions[%d] %s: %v", i, a.Type, err)
		}
	}
	return result, nil
}

func (h *Harness) seed(ctx context.Context, s Setup) error {
	if s.Cells != nil {
		if err := h.store.Set(ctx, persist.CellsKey, []byte(*s.Cells)); err != nil {
			return err
		}
	}
	if s.Preferences != nil {
		if err := h.store.Set(ctx, persist.PreferencesKey, []byte(*s.Preferences)); err != nil {
			return err
		}
	}
	return nil
}

// load builds a fresh core over the byte store.
func (h *Harness) load(ctx context.Context) error {
	g, err := persist.New(h.store, h.logger)
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}
	tt, err := core.New(ctx, core.Options{
		Persister: g,
		Surface:   h.surface,
		Confirmer: h.confirm,
		Logger:    h.logger,
		IDs:       h.ids,
	})
	if err != nil {
		return fmt.Errorf("failed to load core: %w", err)
	}
	h.tt = tt
	return nil
}

// record moves the surface events seen since the last call into the trace.
func (h *Harness) record(result *Result, step int, op string) {
	events := h.surface.Events()
	for _, e := range events[h.recorded:] {
		h.seq++
		result.Trace = append(result.Trace, TraceEvent{
			Seq:   h.seq,
			Step:  step,
			Op:    op,
			Event: e.String(),
		})
	}
	h.recorded = len(events)
}

// execute runs one step. Operation errors are returned in the outcome;
// the error return is for steps that cannot run at all.
func (h *Harness) execute(ctx context.Context, st Step) (StepOutcome, error) {
	var out StepOutcome
	setBool := func(v bool) { out.Value = &v }
	fail := func(err error) (StepOutcome, error) {
		if err != nil {
			out.Error = err.Error()
		}
		return out, err
	}

	switch st.Op {
	case OpOpen:
		id, err := grid.ParseCellID(st.Cell)
		if err != nil {
			return fail(err)
		}
		return fail(h.tt.OpenCell(id))

	case OpStage:
		return fail(h.tt.StageFields(session.Fields{
			Subject: st.Fields.Subject,
			Room:    st.Fields.Room,
			Time:    st.Fields.Time,
		}))

	case OpCommit:
		return fail(h.tt.Commit(ctx))

	case OpClose:
		h.tt.Close()

	case OpToggle:
		id, err := grid.ParseCellID(st.Cell)
		if err != nil {
			return fail(err)
		}
		v, err := h.tt.ToggleAssignment(ctx, id, *st.Index)
		if err != nil {
			return fail(err)
		}
		setBool(v)

	case OpSetAssignment:
		id, err := grid.ParseCellID(st.Cell)
		if err != nil {
			return fail(err)
		}
		return fail(h.tt.SetAssignment(ctx, id, *st.Index, *st.Value))

	case OpDelete:
		h.confirm.Default = st.Confirm
		ok, err := h.tt.DeleteCurrent(ctx)
		if err != nil {
			return fail(err)
		}
		setBool(ok)

	case OpClear:
		h.confirm.Default = st.Confirm
		ok, err := h.tt.ClearAll(ctx)
		if err != nil {
			return fail(err)
		}
		setBool(ok)

	case OpEditMode:
		h.tt.SetEditModeEnabled(*st.Enabled)

	case OpColor:
		return fail(h.tt.SetBackgroundColor(ctx, st.Color))

	case OpReload:
		if err := h.load(ctx); err != nil {
			return out, err
		}

	case OpFailWrites:
		if h.mem == nil {
			return out, errors.New("fail_writes needs the memory backend")
		}
		var err error
		if st.Error != "" {
			err = errors.New(st.Error)
		}
		h.mem.FailWrites(err)

	default:
		return out, fmt.Errorf("unknown op %q", st.Op)
	}
	return out, nil
}
