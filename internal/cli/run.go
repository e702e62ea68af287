package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/spellbook/internal/compiler"
	"github.com/roach88/spellbook/internal/config"
	"github.com/roach88/spellbook/internal/harness"
	"github.com/roach88/spellbook/internal/session"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Mode                string
	MaxCommands         int
	Database            string
	Expect              string
	Book                string
	FirstRelationAsRoot bool
	InteriorCycles      bool

	// IDGenerator overrides the session id source (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator session.IDGenerator
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	SessionID  string        `json:"session_id"`
	Mode       string        `json:"mode"`
	Commands   int           `json:"commands"`
	Transcript []string      `json:"transcript"`
	Hash       string        `json:"hash"`
	Learned    []string      `json:"learned"`
	Terminated bool          `json:"terminated,omitempty"`
	Truncated  bool          `json:"truncated,omitempty"`
	Recorded   string        `json:"recorded,omitempty"` // database path
	Expected   *ExpectResult `json:"expected,omitempty"`
}

// ExpectResult reports the comparison against --expect.
type ExpectResult struct {
	File  string `json:"file"`
	Match bool   `json:"match"`
	Line  int    `json:"line,omitempty"`
	Diff  string `json:"diff,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Execute a command script and print its transcript",
		Long: `Execute a spellbook command script and print the transcript: every
command line followed by its indented responses.

The script is a text file with one command per line, or a CUE book
(*.cue) whose relations and script are rendered to command lines.

With --db the session is recorded for trace and replay. With --expect the
transcript is compared against a solution file truncated to the same
command cap; a mismatch exits 1.

Examples:
  spellbook run spells.txt
  spellbook run --mode longest --max 50 spells.txt
  spellbook run --db ./spellbook.db --expect spells.soln spells.txt
  spellbook run --book fire ./books/fire.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Mode, "mode", "", "cycle policy: plain, check, longest or shortest")
	cmd.Flags().IntVar(&opts.MaxCommands, "max", 0, "maximum number of commands to process")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the session into this SQLite database")
	cmd.Flags().StringVar(&opts.Expect, "expect", "", "solution file to compare the transcript against")
	cmd.Flags().StringVar(&opts.Book, "book", "", "book to run when the CUE file declares several")
	cmd.Flags().BoolVar(&opts.FirstRelationAsRoot, "first-root", false, "let the first relation start a cycle search")
	cmd.Flags().BoolVar(&opts.InteriorCycles, "interior", false, "report cycles that close anywhere on the search path")

	return cmd
}

// resolve layers changed flags over the loaded config.
func (o *RunOptions) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg := o.settings()
	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode = o.Mode
	}
	if flags.Changed("max") {
		cfg.MaxCommands = o.MaxCommands
	}
	if flags.Changed("db") {
		cfg.Database = o.Database
	}
	if flags.Changed("first-root") {
		cfg.FirstRelationAsRoot = o.FirstRelationAsRoot
	}
	if flags.Changed("interior") {
		cfg.InteriorCycles = o.InteriorCycles
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid settings", err)
	}
	return cfg, nil
}

func runScript(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	cfg, err := opts.resolve(cmd)
	if err != nil {
		return err
	}

	lines, err := readInput(path, opts.Book)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read script", err)
	}

	sessOpts := append(cfg.SessionOptions(), session.WithLogger(logger))
	if opts.IDGenerator != nil {
		sessOpts = append(sessOpts, session.WithIDGenerator(opts.IDGenerator))
	}
	if cfg.Database != "" {
		db, err := openDatabase(cfg.Database, true)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		sessOpts = append(sessOpts, session.WithRecorder(db))
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := session.New(sessOpts...)
	logger.Info("running script",
		"path", path,
		"session", sess.ID(),
		"mode", string(sess.Mode()),
		"lines", len(lines))

	tr, err := sess.Run(ctx, lines)
	if err != nil {
		if !formatter.JSON() {
			_, _ = cmd.OutOrStdout().Write(harness.FormatLines(tr.Lines()))
		}
		return WrapExitError(ExitCommandError, "script failed", err)
	}

	transcript := tr.Lines()
	if transcript == nil {
		transcript = []string{}
	}
	hash, err := tr.Hash()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to hash transcript", err)
	}

	result := RunResult{
		SessionID:  tr.SessionID,
		Mode:       string(tr.Mode),
		Commands:   len(tr.Steps),
		Transcript: transcript,
		Hash:       hash,
		Learned:    sess.Learned(),
		Terminated: tr.Terminated,
		Truncated:  tr.Truncated,
		Recorded:   cfg.Database,
	}
	logger.Info("script finished",
		"session", result.SessionID,
		"commands", result.Commands,
		"terminated", result.Terminated,
		"truncated", result.Truncated)

	if opts.Expect != "" {
		limit := cfg.MaxCommands
		if limit <= 0 {
			limit = session.DefaultMaxCommands
		}
		want, err := harness.ReadSolution(opts.Expect, limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read expected transcript", err)
		}
		c := harness.Compare(transcript, want)
		result.Expected = &ExpectResult{File: opts.Expect, Match: c.Match, Line: c.Line, Diff: c.Diff}
	}

	return outputRun(formatter, result)
}

// readInput returns the command lines of a script file or CUE book.
func readInput(path, book string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		b, err := compiler.LoadBook(path, book)
		if err != nil {
			return nil, err
		}
		return b.Lines(), nil
	}
	if book != "" {
		return nil, fmt.Errorf("--book only applies to CUE books, got %s", path)
	}
	return harness.ReadLines(path)
}

func outputRun(formatter *OutputFormatter, result RunResult) error {
	mismatch := result.Expected != nil && !result.Expected.Match

	if formatter.JSON() {
		resp := CLIResponse{Status: "ok", Data: result, Session: result.SessionID}
		if mismatch {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeMismatch,
				Message: fmt.Sprintf("transcript differs from %s at line %d", result.Expected.File, result.Expected.Line),
			}
		}
		if err := formatter.Respond(resp); err != nil {
			return err
		}
	} else {
		if _, err := formatter.Writer.Write(harness.FormatLines(result.Transcript)); err != nil {
			return err
		}
		if mismatch {
			fmt.Fprintf(formatter.GetErrWriter(), "transcript mismatch at line %d (-want +got):\n%s",
				result.Expected.Line, result.Expected.Diff)
		}
	}

	if mismatch {
		return NewExitError(ExitFailure,
			fmt.Sprintf("transcript differs from %s at line %d", result.Expected.File, result.Expected.Line))
	}
	return nil
}
