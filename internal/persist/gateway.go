// Package persist moves timetable state between the in-memory model and a
// durable byte store.
//
// Two independent records are kept under fixed, versioned keys:
//   - CellsKey holds the full cell snapshot
//   - PreferencesKey holds the display preferences
//
// Writes always replace the whole record. Reads never fail: a missing key,
// unreadable bytes or a record that does not match schema.cue all degrade to
// the documented default, with a log line explaining why.
package persist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/timetable/internal/grid"
)

// Fixed storage keys. The version suffix allows a format change to start
// from a fresh record instead of migrating.
const (
	CellsKey       = "timetableData_" + grid.FormatVersion
	PreferencesKey = "timetableSettings_" + grid.FormatVersion
)

// ByteStore is the durable key-value surface the gateway writes to.
// kv.Store and kv.Memory both satisfy it.
type ByteStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Gateway serializes cells and preferences to a ByteStore.
type Gateway struct {
	store  ByteStore
	logger *slog.Logger
	schema *validator
}

// New returns a gateway over store. A nil logger uses slog.Default().
func New(store ByteStore, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("persist: %w", err)
	}
	return &Gateway{
		store:  store,
		logger: logger.With("component", "persist"),
		schema: schema,
	}, nil
}

// LoadCells reads the cell snapshot. It returns an empty snapshot when the
// key is missing or its contents are corrupt.
func (g *Gateway) LoadCells(ctx context.Context) grid.Snapshot {
	data, ok, err := g.store.Get(ctx, CellsKey)
	if err != nil {
		g.logger.Error("read cells failed, starting empty", "key", CellsKey, "error", err)
		return grid.Snapshot{}
	}
	if !ok {
		g.logger.Debug("no stored cells", "key", CellsKey)
		return grid.Snapshot{}
	}

	if err := g.schema.validateCells(data); err != nil {
		g.logger.Warn("stored cells are corrupt, starting empty", "key", CellsKey, "error", err)
		return grid.Snapshot{}
	}
	snap, err := grid.UnmarshalSnapshot(data)
	if err != nil {
		g.logger.Warn("stored cells are corrupt, starting empty", "key", CellsKey, "error", err)
		return grid.Snapshot{}
	}

	g.logger.Debug("cells loaded", "key", CellsKey, "cells", len(snap))
	return snap
}

// SaveCells writes the full snapshot, replacing the stored record.
// A failed write is logged and returned; it is not retried.
func (g *Gateway) SaveCells(ctx context.Context, snap grid.Snapshot) error {
	data, err := grid.MarshalSnapshot(snap)
	if err != nil {
		g.logger.Error("encode cells failed", "error", err)
		return fmt.Errorf("save cells: %w", err)
	}
	if err := g.store.Set(ctx, CellsKey, data); err != nil {
		g.logger.Error("write cells failed, change kept in memory only", "key", CellsKey, "bytes", len(data), "error", err)
		return fmt.Errorf("save cells: %w", err)
	}
	g.logger.Debug("cells saved", "key", CellsKey, "cells", len(snap), "bytes", len(data))
	return nil
}

// LoadPreferences reads the preferences, falling back to the defaults when
// the key is missing or its contents are corrupt.
func (g *Gateway) LoadPreferences(ctx context.Context) grid.Preferences {
	data, ok, err := g.store.Get(ctx, PreferencesKey)
	if err != nil {
		g.logger.Error("read preferences failed, using defaults", "key", PreferencesKey, "error", err)
		return grid.DefaultPreferences()
	}
	if !ok {
		return grid.DefaultPreferences()
	}

	if err := g.schema.validatePreferences(data); err != nil {
		g.logger.Warn("stored preferences are corrupt, using defaults", "key", PreferencesKey, "error", err)
		return grid.DefaultPreferences()
	}
	prefs, err := grid.UnmarshalPreferences(data)
	if err != nil {
		g.logger.Warn("stored preferences are corrupt, using defaults", "key", PreferencesKey, "error", err)
		return grid.DefaultPreferences()
	}
	return prefs
}

// SavePreferences writes the preferences record.
func (g *Gateway) SavePreferences(ctx context.Context, prefs grid.Preferences) error {
	data, err := grid.MarshalPreferences(prefs)
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	if err := g.store.Set(ctx, PreferencesKey, data); err != nil {
		g.logger.Error("write preferences failed, change kept in memory only", "key", PreferencesKey, "error", err)
		return fmt.Errorf("save preferences: %w", err)
	}
	g.logger.Debug("preferences saved", "key", PreferencesKey, "background", prefs.BackgroundColor)
	return nil
}
