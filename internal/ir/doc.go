// Package ir holds the shared record types for spellbook: relations,
// parsed commands, compiled spellbooks and the transcript records written
// by the store.
//
// It also owns the canonical JSON encoding used for content-addressed
// command ids. All other internal packages import ir; ir imports nothing
// internal.
//
// Key constraints:
//   - Canonical values are strings, ints, bools, arrays and objects only
//   - No floats and no null in canonical JSON
//   - Ordering is by logical seq, never by wall-clock time
package ir
