package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/spellbook/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession creates a session record with minimal required fields.
func createTestSession(id string) ir.SessionRecord {
	return ir.SessionRecord{
		ID:            id,
		Mode:          "plain",
		MaxCommands:   1000,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
}

// createTestStep creates a step record whose id is derived like the
// interpreter derives it.
func createTestStep(sessionID string, seq int64, verb ir.Verb, line string, output ...string) ir.StepRecord {
	if output == nil {
		output = []string{}
	}
	return ir.StepRecord{
		ID:        ir.MustCommandID(sessionID, seq, line),
		SessionID: sessionID,
		Seq:       seq,
		Verb:      verb,
		Line:      line,
		Output:    output,
	}
}
