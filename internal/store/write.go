package store

import (
	"context"
	"fmt"

	"github.com/roach88/spellbook/internal/ir"
)

// WriteSession inserts a session record.
// Uses ON CONFLICT(id) DO NOTHING; writing the same session twice is a no-op.
func (s *Store) WriteSession(ctx context.Context, rec ir.SessionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, mode, max_commands, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Mode,
		rec.MaxCommands,
		rec.EngineVersion,
		rec.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// WriteStep inserts a command and its output lines in one transaction.
//
// The command id is content-addressed, so a duplicate write inserts
// nothing. The referenced session must exist (foreign key constraint).
func (s *Store) WriteStep(ctx context.Context, rec ir.StepRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write step: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO commands
		(id, session_id, seq, verb, line)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.SessionID,
		rec.Seq,
		string(rec.Verb),
		rec.Line,
	)
	if err != nil {
		return fmt.Errorf("write step: insert command: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("write step: rows affected: %w", err)
	}
	if rows == 0 {
		return nil
	}

	for pos, text := range rec.Output {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO outputs (command_id, position, text)
			VALUES (?, ?, ?)
		`, rec.ID, pos, text); err != nil {
			return fmt.Errorf("write step: insert output %d: %w", pos, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write step: commit: %w", err)
	}
	return nil
}
