package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/spellbook/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden and expect files
	Filter string // scenario filter (glob pattern on the file name)
	Jobs   int    // scenarios run concurrently
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name    string   `json:"name"`
	File    string   `json:"file"`
	Pass    bool     `json:"pass"`
	Updated bool     `json:"updated,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run transcript scenarios",
		Long: `Run YAML transcript scenarios.

Each scenario runs in a fresh session against an in-memory store. Its
transcript is checked against inline or file expectations, its assertions
are evaluated, and when golden/<name>.golden exists next to the scenario
the transcript must match it byte for byte.

Scenarios run concurrently (--jobs); results are reported in file order.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  spellbook test ./scenarios
  spellbook test ./scenarios --filter "cyclic*"
  spellbook test ./scenarios --update
  spellbook test ./scenarios --jobs 1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden and expect files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().IntVar(&opts.Jobs, "jobs", runtime.NumCPU(), "number of scenarios to run concurrently")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if opts.Jobs < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--jobs must be at least 1, got %d", opts.Jobs))
	}
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	formatter := opts.formatter(cmd)
	if len(scenarioFiles) == 0 {
		if formatter.JSON() {
			return outputTestJSON(formatter, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	results := runScenarios(cmd.Context(), scenarioFiles, opts)

	result := TestResult{Scenarios: results, Total: len(results)}
	for _, r := range results {
		if r.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.JSON() {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter, result)
}

// runScenarios runs every file with at most opts.Jobs in flight. Results
// keep the order of files; a failing scenario never cancels the others.
func runScenarios(ctx context.Context, files []string, opts *TestOptions) []ScenarioResult {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.logger()

	results := make([]ScenarioResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Jobs)
	for i, file := range files {
		i, file := i, file // per-iteration copies (Go < 1.22 loop semantics)
		g.Go(func() error {
			results[i] = runScenario(gctx, file, opts.Update)
			logger.Debug("scenario finished", "file", file, "pass", results[i].Pass)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// findScenarioFiles finds YAML scenarios under dir, optionally filtered by
// a glob matched against the file name without extension.
func findScenarioFiles(dir, filter string) ([]string, error) {
	files, err := harness.FindScenarios(dir)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return files, nil
	}
	if _, err := filepath.Match(filter, ""); err != nil {
		return nil, fmt.Errorf("invalid filter pattern: %w", err)
	}

	var out []string
	for _, f := range files {
		base := filepath.Base(f)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		if ok, _ := filepath.Match(filter, name); ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// runScenario executes a single scenario and returns the result.
func runScenario(ctx context.Context, scenarioFile string, update bool) ScenarioResult {
	res := ScenarioResult{Name: filepath.Base(scenarioFile), File: scenarioFile}

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		res.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return res
	}
	res.Name = scenario.Name

	result, err := harness.RunContext(ctx, scenario)
	if err != nil {
		res.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return res
	}

	goldenPath := goldenFilePath(scenarioFile, scenario.Name)
	if update {
		if err := updateGolden(scenario, result, goldenPath); err != nil {
			res.Errors = []string{err.Error()}
			return res
		}
		res.Pass = true
		res.Updated = true
		return res
	}

	res.Errors = append(res.Errors, result.Errors...)
	if _, err := os.Stat(goldenPath); err == nil {
		want, err := harness.ReadLines(goldenPath)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("golden comparison failed: %v", err))
		} else if c := harness.Compare(result.Transcript, want); !c.Match {
			res.Errors = append(res.Errors,
				fmt.Sprintf("golden file mismatch at line %d (run with --update to regenerate):\n%s", c.Line, c.Diff))
		}
	}
	res.Pass = len(res.Errors) == 0
	return res
}

// goldenFilePath returns golden/<name>.golden next to the scenario file.
func goldenFilePath(scenarioFile, name string) string {
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

// updateGolden writes the transcript as the golden file, and as the expect
// file when the scenario names one.
func updateGolden(scenario *harness.Scenario, result *harness.Result, goldenPath string) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(goldenPath, harness.FormatLines(result.Transcript), 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	if scenario.ExpectFile != "" {
		if err := harness.UpdateExpected(scenario, result); err != nil {
			return err
		}
	}
	return nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	resp := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}
	if err := formatter.Respond(resp); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test result as text.
func outputTestText(formatter *OutputFormatter, result TestResult) error {
	w := formatter.Writer
	for _, s := range result.Scenarios {
		switch {
		case s.Updated:
			fmt.Fprintf(w, "✓ %s (golden updated)\n", s.Name)
		case s.Pass:
			fmt.Fprintf(w, "✓ %s\n", s.Name)
		default:
			fmt.Fprintf(w, "✗ %s\n", s.Name)
			for _, e := range s.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
