// Package engine implements the spellbook dependency-graph core.
//
// The engine tracks named items ("spells"), each optionally requiring an
// ordered list of prerequisite items. It supports incremental acquisition
// (Learn), incremental release (Forget), and cycle diagnosis over the
// prerequisite graph as it grows one relation at a time.
//
// COMPONENTS (leaf first):
//
// PrereqStore:
// Insertion-ordered relations. Lookup by subject returns the FIRST record
// in insertion order; later records for the same subject are kept but are
// never consulted by lookup. Relations are never removed.
//
// Ledger:
// Insertion-ordered map of learned item to its explicit flag. Presence is
// what "learned" means; the flag is informational.
//
// Resolution (Learn / Forget):
// Depth-first, requirement order for Learn, reverse requirement order for
// the release chain of Forget. Every outcome is a transcript line; the
// core never returns an error for user input.
//
// Cycle analysis (HasCycle / LongestCycle / ShortestCycle):
// Depth-first over record indices. Roots are visited in reverse insertion
// order and index 0 is not used as a root unless WithFirstRelationAsRoot
// is set.
//
// The engine is single-threaded and holds no locks. Callers that share an
// engine across goroutines must serialize access (see session.Session).
package engine
