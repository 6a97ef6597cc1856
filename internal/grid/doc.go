// Package grid defines the timetable data model shared by every other package.
//
// The grid is a fixed 6-period x 5-day table. Each slot is addressed by a
// CellID and may hold a CellRecord. The key space is static: AllCellIDs
// returns the same 30 identifiers for the lifetime of the program.
//
// # Meaningful records
//
// A CellRecord is meaningful when it carries at least one non-default value:
// a non-empty subject, room or time, or a checked assignment. Stores only keep
// meaningful records; an empty slot is represented by absence.
//
// # Serialization
//
// Snapshots are encoded with MarshalSnapshot, which produces canonical JSON:
//   - object keys sorted
//   - text kept exactly as entered
//   - no HTML escaping, no insignificant whitespace
//
// Equal snapshots therefore encode to identical bytes. Digest hashes the NFC
// form of the text, so it does not change when the same characters arrive
// composed on one machine and decomposed on another.
package grid
