package store

import (
	"context"
	"fmt"

	"github.com/roach88/spellbook/internal/ir"
)

// SessionState is everything recorded for one session, used by replay.
type SessionState struct {
	Session ir.SessionRecord
	Steps   []ir.StepRecord
	LastSeq int64

	// Terminated is set when the last recorded command had an unknown verb.
	Terminated bool
}

// Lines returns the recorded command lines in seq order.
func (st SessionState) Lines() []string {
	lines := make([]string, len(st.Steps))
	for i, step := range st.Steps {
		lines[i] = step.Line
	}
	return lines
}

// GetSessionState loads a session and its steps.
func (s *Store) GetSessionState(ctx context.Context, sessionID string) (SessionState, error) {
	rec, err := s.ReadSession(ctx, sessionID)
	if err != nil {
		return SessionState{}, fmt.Errorf("get session state: %w", err)
	}

	steps, err := s.ReadSteps(ctx, sessionID)
	if err != nil {
		return SessionState{}, fmt.Errorf("get session state: %w", err)
	}

	state := SessionState{Session: rec, Steps: steps}
	if n := len(steps); n > 0 {
		state.LastSeq = steps[n-1].Seq
		state.Terminated = steps[n-1].Verb == ir.VerbUnknown
	}
	return state, nil
}

// GetLastSeq returns the highest seq recorded for a session, or 0.
func (s *Store) GetLastSeq(ctx context.Context, sessionID string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM commands WHERE session_id = ?
	`, sessionID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq, nil
}
