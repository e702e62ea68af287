// Package session interprets spellbook command scripts against an engine.
//
// A Session turns text lines into engine calls, echoes each processed line
// into the transcript ahead of its responses, enforces the processing cap,
// and applies one of four cycle policies (see Mode).
//
// Each executed command is stamped with a logical sequence number from
// Clock and a content-addressed id (ir.CommandID), so a recorded session
// can be replayed and compared byte for byte.
//
// Session is safe for concurrent use: one mutex serializes every call into
// the engine it owns.
package session
