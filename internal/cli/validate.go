package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/spellbook/internal/compiler"
	"github.com/roach88/spellbook/internal/harness"
	"github.com/roach88/spellbook/internal/ir"
)

// ErrCodeInvalidScenario marks a referenced scenario file that fails to load.
const ErrCodeInvalidScenario = "E126"

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict bool // treat cycle warnings as errors
}

// BookReport holds the findings for one book, or for a file that failed to
// compile (Name empty).
type BookReport struct {
	Name      string                     `json:"name,omitempty"`
	File      string                     `json:"file"`
	Relations int                        `json:"relations"`
	Script    int                        `json:"script"`
	Scenarios []string                   `json:"scenarios,omitempty"`
	Errors    []compiler.ValidationError `json:"errors,omitempty"`
	Warnings  []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool         `json:"valid"`
	Books    []BookReport `json:"books"`
	Errors   int          `json:"errors"`
	Warnings int          `json:"warnings"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <book.cue|dir>",
		Short: "Check spellbooks without running them",
		Long: `Check CUE spellbooks without running them.

Compiles every book, checks names, duplicate declarations and script lines,
resolves referenced scenario files, and reports every prerequisite cycle
the relations contain (including two-node loops and self-requirements).

Cycles are warnings unless --strict is given.

Exit codes:
  0 - All books valid
  1 - Validation errors (or warnings with --strict)
  2 - Command error (path not found, no CUE files)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on cycle warnings")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loadResult, loadErrors := LoadBooks(path, LoadModeCollectAll)
	if loadResult == nil {
		cliErr := toCLIError(loadErrors[0])
		_ = formatter.Error(cliErr.Code, cliErr.Message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", cliErr.Code, cliErr.Message))
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, path)

	result := ValidationResult{Books: []BookReport{}}
	for _, err := range loadErrors {
		result.Books = append(result.Books, failedFileReport(err))
	}
	for _, file := range loadResult.Files {
		for _, b := range file.Books {
			formatter.VerboseLog("Validating book: %s", b.Name)
			report := BookReport{
				Name:      b.Name,
				File:      file.Path,
				Relations: len(b.Relations),
				Script:    len(b.Script),
				Errors:    compiler.Validate(b),
				Warnings:  compiler.AnalyzeCycles(b.Relations),
			}
			report.Scenarios, report.Errors = checkScenarios(b, file, report.Errors)
			result.Books = append(result.Books, report)
		}
	}

	for _, r := range result.Books {
		result.Errors += len(r.Errors)
		result.Warnings += len(r.Warnings)
	}
	result.Valid = result.Errors == 0 && (!opts.Strict || result.Warnings == 0)

	if formatter.JSON() {
		return outputValidateJSON(formatter, result)
	}
	return outputValidateText(formatter, result)
}

// failedFileReport turns a file-level load error into a report.
func failedFileReport(err error) BookReport {
	cliErr := CLIError{Code: ErrCodeGeneric, Message: err.Error()}
	file := ""
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		cliErr = toCLIError(loadErr)
		file = loadErr.File
	}
	return BookReport{
		File: file,
		Errors: []compiler.ValidationError{{
			Field:   "load",
			Message: cliErr.Message,
			Code:    cliErr.Code,
		}},
	}
}

// checkScenarios resolves a book's scenario references and loads each one.
func checkScenarios(b *ir.Book, file compiler.BookFile, errs []compiler.ValidationError) ([]string, []compiler.ValidationError) {
	paths, err := harness.ExtractScenarios(b, file.Dir())
	if err != nil {
		var notFound *harness.ScenarioNotFoundError
		code := ErrCodeGeneric
		if errors.As(err, &notFound) {
			code = ErrCodeMissingScenario
		}
		return nil, append(errs, compiler.ValidationError{
			Field:   "scenarios",
			Message: err.Error(),
			Code:    code,
		})
	}
	for i, p := range paths {
		if _, err := harness.LoadScenario(p); err != nil {
			errs = append(errs, compiler.ValidationError{
				Field:   fmt.Sprintf("scenarios[%d]", i),
				Message: err.Error(),
				Code:    ErrCodeInvalidScenario,
			})
		}
	}
	return paths, errs
}

func outputValidateJSON(formatter *OutputFormatter, result ValidationResult) error {
	resp := CLIResponse{Status: "ok", Data: result}
	if !result.Valid {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    firstCode(result),
			Message: fmt.Sprintf("validation failed with %d error(s), %d warning(s)", result.Errors, result.Warnings),
		}
	}
	if err := formatter.Respond(resp); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, resp.Error.Message)
	}
	return nil
}

func outputValidateText(formatter *OutputFormatter, result ValidationResult) error {
	w := formatter.Writer
	for _, r := range result.Books {
		label := r.Name
		if label == "" {
			label = "(unreadable)"
		}
		mark := "✓"
		switch {
		case len(r.Errors) > 0:
			mark = "✗"
		case len(r.Warnings) > 0:
			mark = "⚠"
		}
		fmt.Fprintf(w, "%s %s (%s): %d relation(s), %d script line(s)\n", mark, label, r.File, r.Relations, r.Script)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s %s: %s\n", e.Code, e.Field, e.Message)
		}
		for _, cw := range r.Warnings {
			fmt.Fprintf(w, "  %s: %s\n", cw.Level, cw.Message)
		}
	}
	fmt.Fprintln(w)

	if result.Valid {
		if result.Warnings > 0 {
			fmt.Fprintf(w, "✓ All books valid (%d warning(s))\n", result.Warnings)
		} else {
			fmt.Fprintln(w, "✓ All books valid")
		}
		return nil
	}

	msg := fmt.Sprintf("validation failed with %d error(s), %d warning(s)", result.Errors, result.Warnings)
	fmt.Fprintf(w, "✗ %s\n", msg)
	return NewExitError(ExitFailure, msg)
}

// firstCode returns the code of the first error, or a cycle code under
// --strict.
func firstCode(result ValidationResult) string {
	for _, r := range result.Books {
		if len(r.Errors) > 0 {
			return r.Errors[0].Code
		}
	}
	return "E_CYCLE"
}
