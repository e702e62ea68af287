package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/spellbook/internal/ir"
	"github.com/roach88/spellbook/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	SessionID string // optional - defaults to the latest session
	Steps     bool   // annotate each command with seq and verb
}

// TraceStep is one recorded command in the trace timeline.
type TraceStep struct {
	Seq    int64    `json:"seq"`
	ID     string   `json:"id"`
	Verb   string   `json:"verb"`
	Line   string   `json:"line"`
	Output []string `json:"output"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Commands   int            `json:"commands"`
	Responses  int            `json:"responses"`
	Verbs      map[string]int `json:"verbs"`
	Terminated bool           `json:"terminated,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session    ir.SessionRecord `json:"session"`
	Steps      []TraceStep      `json:"steps"`
	Transcript []string         `json:"transcript"`
	Stats      TraceStats       `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print a recorded session transcript",
		Long: `Print the transcript of a session recorded with "run --db".

Text output is the transcript itself, suitable as a solution file for
"run --expect". With --steps each command is prefixed with its logical
sequence number and verb. JSON output adds per-step ids and verb counts.

Examples:
  spellbook trace --db ./spellbook.db
  spellbook trace --db ./spellbook.db --session 0192f0c4-...
  spellbook trace --db ./spellbook.db --steps --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "session to trace (default: latest)")
	cmd.Flags().BoolVar(&opts.Steps, "steps", false, "annotate commands with seq and verb")

	return cmd
}

// databasePath returns the --db flag or the configured database.
func databasePath(cmd *cobra.Command, flag string, opts *RootOptions) string {
	if cmd.Flags().Changed("db") {
		return flag
	}
	return opts.settings().Database
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	db, err := openDatabase(databasePath(cmd, opts.Database, opts.RootOptions), false)
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := selectSession(ctx, db.Store, opts.SessionID)
	if err != nil {
		return err
	}

	state, err := db.GetSessionState(ctx, rec.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}
	transcript, err := db.ReadTranscript(ctx, rec.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read transcript", err)
	}
	counts, err := db.CountVerbs(ctx, rec.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count verbs", err)
	}

	result := TraceResult{
		Session:    state.Session,
		Steps:      make([]TraceStep, len(state.Steps)),
		Transcript: transcript,
		Stats: TraceStats{
			Commands:   len(state.Steps),
			Verbs:      make(map[string]int, len(counts)),
			Terminated: state.Terminated,
		},
	}
	for i, s := range state.Steps {
		result.Steps[i] = TraceStep{
			Seq:    s.Seq,
			ID:     s.ID,
			Verb:   verbName(s.Verb),
			Line:   s.Line,
			Output: s.Output,
		}
		result.Stats.Responses += len(s.Output)
	}
	for verb, n := range counts {
		result.Stats.Verbs[verbName(verb)] = n
	}

	if formatter.JSON() {
		return formatter.Respond(CLIResponse{Status: "ok", Data: result, Session: rec.ID})
	}
	return outputTraceText(formatter, result, opts.Steps)
}

// verbName labels a recorded verb; unknown verbs are stored empty.
func verbName(v ir.Verb) string {
	if v == ir.VerbUnknown {
		return "UNKNOWN"
	}
	return string(v)
}

// selectSession returns the named session, or the latest one.
func selectSession(ctx context.Context, st *store.Store, id string) (ir.SessionRecord, error) {
	var (
		rec ir.SessionRecord
		err error
	)
	if id == "" {
		rec, err = st.LatestSession(ctx)
	} else {
		rec, err = st.ReadSession(ctx, id)
	}
	switch {
	case errors.Is(err, sql.ErrNoRows) && id == "":
		return rec, NewExitError(ExitCommandError, "no sessions recorded")
	case errors.Is(err, sql.ErrNoRows):
		return rec, NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", id))
	case err != nil:
		return rec, WrapExitError(ExitCommandError, "failed to read session", err)
	}
	return rec, nil
}

func outputTraceText(formatter *OutputFormatter, result TraceResult, steps bool) error {
	w := formatter.Writer

	formatter.VerboseLog("Session %s (mode %s, max %d, engine %s)",
		result.Session.ID, result.Session.Mode, result.Session.MaxCommands, result.Session.EngineVersion)
	if formatter.Verbose {
		verbs := make([]string, 0, len(result.Stats.Verbs))
		for v := range result.Stats.Verbs {
			verbs = append(verbs, v)
		}
		sort.Strings(verbs)
		for _, v := range verbs {
			formatter.VerboseLog("  %s: %d", v, result.Stats.Verbs[v])
		}
	}

	if !steps {
		for _, line := range result.Transcript {
			fmt.Fprintln(w, line)
		}
		return nil
	}
	for _, s := range result.Steps {
		fmt.Fprintf(w, "[%d] %-7s %s\n", s.Seq, s.Verb, s.Line)
		for _, out := range s.Output {
			fmt.Fprintf(w, "%s\n", out)
		}
	}
	return nil
}
