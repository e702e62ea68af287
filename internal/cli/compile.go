package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/spellbook/internal/harness"
	"github.com/roach88/spellbook/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
	Book   string // select one book by name
}

// CompiledBook is one book rendered to a command script.
type CompiledBook struct {
	Name      string   `json:"name"`
	File      string   `json:"file"`
	Hash      string   `json:"hash"`
	Relations int      `json:"relations"`
	Lines     []string `json:"lines"`
}

// CompilationResult holds every compiled book.
type CompilationResult struct {
	Books []CompiledBook `json:"books"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <book.cue|dir>",
		Short: "Compile CUE spellbooks to command scripts",
		Long: `Compile CUE spellbooks to command scripts.

Each book's relations become PREREQ lines in declaration order, followed by
its script. Text output is the script itself and needs exactly one book;
use --book to pick one. JSON output lists every book with its content hash.

Examples:
  spellbook compile ./books/fire.cue
  spellbook compile ./books --book fire -o fire.txt
  spellbook compile ./books --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Book, "book", "", "compile only the named book")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loadResult, loadErrors := LoadBooks(path, LoadModeCollectAll)
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, path)

	result := CompilationResult{Books: []CompiledBook{}}
	for _, file := range loadResult.Files {
		for _, b := range file.Books {
			if opts.Book != "" && b.Name != opts.Book {
				continue
			}
			formatter.VerboseLog("Compiling book: %s", b.Name)
			hash, err := ir.BookHash(*b)
			if err != nil {
				return outputCompileError(formatter, ErrCodeGeneric, fmt.Sprintf("hashing book %s: %v", b.Name, err))
			}
			result.Books = append(result.Books, CompiledBook{
				Name:      b.Name,
				File:      file.Path,
				Hash:      hash,
				Relations: len(b.Relations),
				Lines:     b.Lines(),
			})
		}
	}

	switch {
	case len(result.Books) == 0 && opts.Book != "":
		return outputCompileError(formatter, ErrCodeNoBooks, fmt.Sprintf("book %q not found in %s", opts.Book, path))
	case len(result.Books) == 0:
		return outputCompileError(formatter, ErrCodeNoBooks, fmt.Sprintf("no books found in %s", path))
	}

	if opts.Output != "" || !formatter.JSON() {
		if len(result.Books) > 1 {
			return outputCompileError(formatter, ErrCodeGeneric,
				fmt.Sprintf("%d books found; select one with --book", len(result.Books)))
		}
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, harness.FormatLines(result.Books[0].Lines), 0o644); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
		formatter.VerboseLog("Wrote %s to %s", result.Books[0].Name, opts.Output)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "✓ Compiled book %s (%d relation(s), %d line(s)) to %s\n",
			result.Books[0].Name, result.Books[0].Relations, len(result.Books[0].Lines), opts.Output)
		return nil
	}
	_, err := formatter.Writer.Write(harness.FormatLines(result.Books[0].Lines))
	return err
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputCompileErrors outputs every load error.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	cliErrors := make([]CLIError, len(errs))
	for i, err := range errs {
		cliErrors[i] = toCLIError(err)
	}

	if formatter.JSON() {
		if err := formatter.Respond(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
		for _, e := range cliErrors {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", e.Code, e.Message)
		}
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// toCLIError extracts code and located message from a load error.
func toCLIError(err error) CLIError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return CLIError{Code: loadErr.Code, Message: locate(loadErr)}
	}
	return CLIError{Code: ErrCodeGeneric, Message: err.Error()}
}

// locate prefixes the message with its file position, or just the file.
func locate(e *LoadError) string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}
