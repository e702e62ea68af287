package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/spellbook/internal/engine"
	"github.com/roach88/spellbook/internal/harness"
	"github.com/roach88/spellbook/internal/ir"
	"github.com/roach88/spellbook/internal/session"
	"github.com/roach88/spellbook/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database            string
	SessionID           string // optional - specific session only
	FirstRelationAsRoot bool
	InteriorCycles      bool
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	SessionID     string `json:"session_id"`
	Mode          string `json:"mode"`
	Commands      int    `json:"commands"`
	RecordedHash  string `json:"recorded_hash"`
	ReplayedHash  string `json:"replayed_hash"`
	Deterministic bool   `json:"deterministic"`
	Line          int    `json:"line,omitempty"` // first differing transcript line
	Diff          string `json:"diff,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-execute recorded sessions and verify determinism",
		Long: `Re-execute the commands of recorded sessions and verify determinism.

Each session is run again in a fresh interpreter with its recorded id,
mode and command cap. The replayed transcript hash and every command id
must match the recording.

Cycle-search switches are not recorded; they come from the config file or
the --first-root and --interior flags and must match the original run.

Exit codes:
  0 - All sessions are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  spellbook replay --db ./spellbook.db
  spellbook replay --db ./spellbook.db --session 0192f0c4-...
  spellbook replay --db ./spellbook.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "replay specific session only")
	cmd.Flags().BoolVar(&opts.FirstRelationAsRoot, "first-root", false, "let the first relation start a cycle search")
	cmd.Flags().BoolVar(&opts.InteriorCycles, "interior", false, "report cycles that close anywhere on the search path")

	return cmd
}

// engineOptions layers changed flags over the configured switches.
func (o *ReplayOptions) engineOptions(cmd *cobra.Command) []engine.EngineOption {
	cfg := o.settings()
	if cmd.Flags().Changed("first-root") {
		cfg.FirstRelationAsRoot = o.FirstRelationAsRoot
	}
	if cmd.Flags().Changed("interior") {
		cfg.InteriorCycles = o.InteriorCycles
	}
	return cfg.EngineOptions()
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	db, err := openDatabase(databasePath(cmd, opts.Database, opts.RootOptions), false)
	if err != nil {
		return err
	}
	defer db.Close()

	var sessions []ir.SessionRecord
	if opts.SessionID != "" {
		rec, err := selectSession(ctx, db.Store, opts.SessionID)
		if err != nil {
			return err
		}
		sessions = []ir.SessionRecord{rec}
	} else {
		sessions, err = db.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(sessions)),
		TotalSessions:    len(sessions),
		AllDeterministic: true,
	}
	if len(sessions) == 0 {
		if formatter.JSON() {
			return outputReplayJSON(formatter, result)
		}
		fmt.Fprintln(formatter.Writer, "No sessions found in database.")
		return nil
	}

	engineOpts := opts.engineOptions(cmd)
	for _, rec := range sessions {
		r, err := replaySession(ctx, db.Store, rec, engineOpts, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", rec.ID), err)
		}
		result.Sessions = append(result.Sessions, r)
		if !r.Deterministic {
			result.AllDeterministic = false
		}
	}

	if formatter.JSON() {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// replaySession re-executes one recorded session and compares the result
// with the recording.
func replaySession(ctx context.Context, st *store.Store, rec ir.SessionRecord, engineOpts []engine.EngineOption, logger *slog.Logger) (ReplaySessionResult, error) {
	state, err := st.GetSessionState(ctx, rec.ID)
	if err != nil {
		return ReplaySessionResult{}, err
	}
	recorded, err := st.ReadTranscript(ctx, rec.ID)
	if err != nil {
		return ReplaySessionResult{}, err
	}
	recordedHash, err := ir.TranscriptHash(recorded)
	if err != nil {
		return ReplaySessionResult{}, err
	}

	mode, err := session.ParseMode(rec.Mode)
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("recorded mode: %w", err)
	}
	sess := session.New(
		session.WithMode(mode),
		session.WithMaxCommands(rec.MaxCommands),
		session.WithEngineOptions(engineOpts...),
		session.WithIDGenerator(session.NewFixedGenerator(rec.ID)),
		session.WithLogger(logger),
	)
	tr, err := sess.Run(ctx, state.Lines())
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("re-execute: %w", err)
	}
	replayedHash, err := tr.Hash()
	if err != nil {
		return ReplaySessionResult{}, err
	}

	r := ReplaySessionResult{
		SessionID:    rec.ID,
		Mode:         rec.Mode,
		Commands:     len(state.Steps),
		RecordedHash: recordedHash,
		ReplayedHash: replayedHash,
	}
	r.Deterministic = recordedHash == replayedHash && sameCommandIDs(tr.Steps, state.Steps)
	if c := harness.Compare(tr.Lines(), recorded); !c.Match {
		r.Line = c.Line
		r.Diff = c.Diff
	}

	logger.Debug("session replayed",
		"session", rec.ID,
		"commands", r.Commands,
		"deterministic", r.Deterministic)
	return r, nil
}

// sameCommandIDs reports whether replayed steps carry the recorded ids.
func sameCommandIDs(replayed []session.Step, recorded []ir.StepRecord) bool {
	if len(replayed) != len(recorded) {
		return false
	}
	for i := range replayed {
		if replayed[i].ID != recorded[i].ID {
			return false
		}
	}
	return true
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	resp := CLIResponse{Status: "ok", Data: result}
	if !result.AllDeterministic {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}
	if err := formatter.Respond(resp); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		status := "✓"
		if !s.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Session: %s\n", status, s.SessionID)
		fmt.Fprintf(w, "  Mode: %s, commands: %d\n", s.Mode, s.Commands)
		if formatter.Verbose {
			fmt.Fprintf(w, "  Recorded hash: %s\n", s.RecordedHash)
			fmt.Fprintf(w, "  Replayed hash: %s\n", s.ReplayedHash)
		}
		if !s.Deterministic {
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
			if s.Diff != "" {
				fmt.Fprintf(w, "  First difference at line %d (-recorded +replayed):\n%s", s.Line, s.Diff)
			}
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sessions verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
