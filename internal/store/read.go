package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/spellbook/internal/ir"
)

// ReadSession retrieves a single session by id.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadSession(ctx context.Context, id string) (ir.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, mode, max_commands, engine_version, ir_version
		FROM sessions
		WHERE id = ?
	`, id)

	rec, err := scanSession(row)
	if err != nil {
		return ir.SessionRecord{}, fmt.Errorf("read session %s: %w", id, err)
	}
	return rec, nil
}

// ListSessions returns every session in recording order.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListSessions(ctx context.Context) ([]ir.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, max_commands, engine_version, ir_version
		FROM sessions
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []ir.SessionRecord{}
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// LatestSession returns the most recently recorded session.
// Returns an error wrapping sql.ErrNoRows if the store is empty.
func (s *Store) LatestSession(ctx context.Context) (ir.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, mode, max_commands, engine_version, ir_version
		FROM sessions
		ORDER BY rowid DESC
		LIMIT 1
	`)

	rec, err := scanSession(row)
	if err != nil {
		return ir.SessionRecord{}, fmt.Errorf("read latest session: %w", err)
	}
	return rec, nil
}

// ReadSteps returns every recorded step of a session with its output lines.
// Results are ordered by seq ASC, id ASC COLLATE BINARY.
// Returns an empty slice (not nil) if the session has no steps.
func (s *Store) ReadSteps(ctx context.Context, sessionID string) ([]ir.StepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, seq, verb, line
		FROM commands
		WHERE session_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()

	steps := []ir.StepRecord{}
	index := make(map[string]int)
	for rows.Next() {
		var rec ir.StepRecord
		var verb string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Seq, &verb, &rec.Line); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		rec.Verb = ir.Verb(verb)
		rec.Output = []string{}
		index[rec.ID] = len(steps)
		steps = append(steps, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commands: %w", err)
	}

	if err := s.attachOutputs(ctx, sessionID, steps, index); err != nil {
		return nil, err
	}
	return steps, nil
}

// attachOutputs loads output lines for a session in one query (avoids N+1).
func (s *Store) attachOutputs(ctx context.Context, sessionID string, steps []ir.StepRecord, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.command_id, o.text
		FROM outputs o
		JOIN commands c ON o.command_id = c.id
		WHERE c.session_id = ?
		ORDER BY c.seq ASC, o.position ASC
	`, sessionID)
	if err != nil {
		return fmt.Errorf("query outputs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var commandID, text string
		if err := rows.Scan(&commandID, &text); err != nil {
			return fmt.Errorf("scan output: %w", err)
		}
		i, ok := index[commandID]
		if !ok {
			return fmt.Errorf("output references unknown command %s", commandID)
		}
		steps[i].Output = append(steps[i].Output, text)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate outputs: %w", err)
	}
	return nil
}

// ReadTranscript returns the flattened transcript of a session: each
// command line followed by its output lines.
func (s *Store) ReadTranscript(ctx context.Context, sessionID string) ([]string, error) {
	steps, err := s.ReadSteps(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	lines := []string{}
	for _, step := range steps {
		lines = append(lines, step.Line)
		lines = append(lines, step.Output...)
	}
	return lines, nil
}

// CountVerbs returns how many commands of each verb a session executed.
func (s *Store) CountVerbs(ctx context.Context, sessionID string) (map[ir.Verb]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT verb, COUNT(*)
		FROM commands
		WHERE session_id = ?
		GROUP BY verb
		ORDER BY verb COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("count verbs: %w", err)
	}
	defer rows.Close()

	counts := make(map[ir.Verb]int)
	for rows.Next() {
		var verb string
		var n int
		if err := rows.Scan(&verb, &n); err != nil {
			return nil, fmt.Errorf("scan verb count: %w", err)
		}
		counts[ir.Verb(verb)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verb counts: %w", err)
	}
	return counts, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (ir.SessionRecord, error) {
	var rec ir.SessionRecord
	err := row.Scan(&rec.ID, &rec.Mode, &rec.MaxCommands, &rec.EngineVersion, &rec.IRVersion)
	if err == sql.ErrNoRows {
		return ir.SessionRecord{}, err
	}
	if err != nil {
		return ir.SessionRecord{}, fmt.Errorf("scan session: %w", err)
	}
	return rec, nil
}
