// Package kv provides the durable key-value byte store that timetable
// snapshots are written to.
//
// Two implementations share the same method set:
//   - Store: SQLite-backed, one row per key, for real devices
//   - Memory: map-backed, for tests and throwaway sessions
//
// Values are opaque bytes. Every write replaces the previous value in full;
// there are no partial updates. Both implementations can enforce a per-value
// size quota, returning ErrQuotaExceeded when a write is too large.
//
// # Database Configuration
//
//   - WAL mode: readers never block the single writer
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//
// Ordering uses a logical write counter (updated_seq), never wall time.
package kv
