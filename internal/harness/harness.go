package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/spellbook/internal/engine"
	"github.com/roach88/spellbook/internal/session"
	"github.com/roach88/spellbook/internal/store"
	"github.com/roach88/spellbook/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios against a real session with a fixed session id and
// records every step into a throwaway store.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Resolve the input lines (commands, script or book)
//  2. Run them through a session recording into the store
//  3. Cross-check the recorded transcript against the live one
//  4. Compare with the expected transcript, if any
//  5. Evaluate assertions
//
// An error means the scenario could not be executed at all; failed checks
// are reported through Result.Errors.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	mode, err := scenario.SessionMode()
	if err != nil {
		return nil, err
	}

	lines, err := scenario.Lines()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve input: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result, err := h.execute(ctx, scenario, mode, lines)
	if err != nil {
		return nil, err
	}

	want, ok, err := scenario.Expected()
	if err != nil {
		return nil, fmt.Errorf("failed to read expected transcript: %w", err)
	}
	if ok {
		if c := Compare(result.Transcript, want); !c.Match {
			result.AddError(fmt.Sprintf("transcript mismatch at line %d (-want +got):\n%s", c.Line, c.Diff))
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// execute runs the lines through a recorded session.
func (h *Harness) execute(ctx context.Context, scenario *Scenario, mode session.Mode, lines []string) (*Result, error) {
	var engineOpts []engine.EngineOption
	if scenario.FirstRelationAsRoot {
		engineOpts = append(engineOpts, engine.WithFirstRelationAsRoot())
	}
	if scenario.InteriorCycles {
		engineOpts = append(engineOpts, engine.WithInteriorCycles())
	}

	sess := session.New(
		session.WithMode(mode),
		session.WithMaxCommands(scenario.Limit()),
		session.WithEngineOptions(engineOpts...),
		session.WithRecorder(h.store),
		session.WithIDGenerator(testutil.NewFixedSessionGenerator(scenario.SessionID)),
		session.WithLogger(h.logger),
	)

	tr, err := sess.Run(ctx, lines)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	result := NewResult()
	result.SessionID = tr.SessionID
	result.Transcript = append(result.Transcript, tr.Lines()...)
	result.Learned = append(result.Learned, sess.Learned()...)
	result.Terminated = tr.Terminated
	result.Truncated = tr.Truncated

	result.Hash, err = tr.Hash()
	if err != nil {
		return nil, fmt.Errorf("failed to hash transcript: %w", err)
	}

	recorded, err := h.store.ReadTranscript(ctx, tr.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read recorded transcript: %w", err)
	}
	if c := Compare(recorded, result.Transcript); !c.Match {
		result.AddError(fmt.Sprintf("recorded transcript differs from live transcript at line %d:\n%s", c.Line, c.Diff))
	}

	h.logger.Info("scenario executed",
		"scenario", scenario.Name,
		"session", tr.SessionID,
		"steps", len(tr.Steps),
		"terminated", tr.Terminated,
		"truncated", tr.Truncated,
	)
	return result, nil
}
