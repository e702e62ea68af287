package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/spellbook/internal/compiler"
)

// LoadMode controls how errors are handled during book loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the books compiled from a file or directory.
type LoadResult struct {
	Files     []compiler.BookFile
	FileCount int // CUE files found, including ones that failed
}

// BookCount returns the number of compiled books.
func (r *LoadResult) BookCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Books)
	}
	return n
}

// LoadError represents an error that occurred during book loading.
type LoadError struct {
	Code    string
	Message string
	File    string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadBooks compiles a single .cue file or every .cue file under a
// directory. A nil result means nothing could be scanned at all.
func LoadBooks(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", path, err)}}
	}

	files := []string{path}
	if info.IsDir() {
		files, err = compiler.FindCUEFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		if len(files) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}}
		}
	}

	result := &LoadResult{FileCount: len(files)}
	var errs []error
	for _, f := range files {
		books, err := compiler.LoadFile(f)
		if err != nil {
			errs = append(errs, convertCompileError(err, f))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Files = append(result.Files, compiler.BookFile{Path: f, Books: books})
	}
	return result, errs
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, file string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			File:    file,
			Pos:     compileErr.Pos,
		}
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error(), File: file}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error(), File: file}
}

// Error code constants, shared across CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE file unreadable or unparsable
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeNoBooks     = "E006" // File has no book declarations
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeDatabase    = "E008" // Database missing, locked or unreadable
	ErrCodeMismatch    = "E009" // Transcript differs from expectation

	// Book compile errors
	ErrCodeRelations   = "E101" // relations missing or not a list
	ErrCodeSpellField  = "E102" // relation spell missing or invalid
	ErrCodeRequires    = "E103" // relation requires invalid
	ErrCodeScriptField = "E104" // script is not a list of strings
	ErrCodeScenarios   = "E105" // scenarios is not a list of strings

	// Cross-file checks
	ErrCodeMissingScenario = "E125" // book references a scenario file that does not exist
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "cue":
		return ErrCodeLoadFailed
	case field == "book":
		return ErrCodeNoBooks
	case field == "relations":
		return ErrCodeRelations
	case strings.HasPrefix(field, "relations[") && strings.HasSuffix(field, ".spell"):
		return ErrCodeSpellField
	case strings.HasPrefix(field, "relations[") && strings.Contains(field, ".requires"):
		return ErrCodeRequires
	case field == "script":
		return ErrCodeScriptField
	case field == "scenarios":
		return ErrCodeScenarios
	default:
		return ErrCodeGeneric
	}
}
