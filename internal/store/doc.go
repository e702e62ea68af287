// Package store provides SQLite-backed storage for spellbook sessions.
//
// The store is an append-only transcript log:
//   - sessions: one row per interpreter session (mode, cap, versions)
//   - commands: one row per executed command line, keyed by its
//     content-addressed id (ir.CommandID)
//   - outputs: the response lines of each command, by position
//
// # Ordering
//
// All ordering uses the logical seq column, never timestamps. Queries order
// by seq ASC, id ASC COLLATE BINARY so reads are identical across replays.
//
// # Idempotency
//
// Writes use ON CONFLICT DO NOTHING. Recording the same step twice (same
// session, seq and line) leaves one row.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// *Store implements session.Recorder.
package store
