// Package core wires the timetable components into one context object.
//
// A Timetable owns the cell store, the persistence gateway, the single edit
// session slot, the preferences and the global edit-mode flag. It is built by
// New, which performs the only startup sequence:
//
//  1. load preferences and apply the background color
//  2. load cells
//  3. derive edit mode: enabled iff the store is empty
//  4. render all cells
//
// Every public operation runs to completion under one lock: the mutation,
// its persistence write and its re-render are visible to the next operation
// as a unit. Persistence failures never abort an operation; the in-memory
// state stays authoritative and LastSaveError reports the failure.
//
// # Checklist toggles
//
// ToggleAssignment and SetAssignment write to the store and persist
// immediately, in any mode, open session or not. They are the one path that
// bypasses both the edit-mode gate and the staged-commit path. Closing a
// session without committing does not roll them back.
package core
