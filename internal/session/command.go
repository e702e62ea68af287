package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/spellbook/internal/ir"
)

// ParseErrorCode categorizes malformed command lines.
type ParseErrorCode string

const (
	// ErrCodeMissingArgument indicates a verb without its required operand.
	ErrCodeMissingArgument ParseErrorCode = "MISSING_ARGUMENT"

	// ErrCodeExtraArgument indicates LEARN or FORGET with more than one item.
	ErrCodeExtraArgument ParseErrorCode = "EXTRA_ARGUMENT"
)

// ParseError reports a command line with a known verb but bad operands.
type ParseError struct {
	Code    ParseErrorCode
	Line    string
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s (line %q)", e.Code, e.Message, e.Line)
}

// IsParseError returns true if err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// ParseCommand tokenizes one command line on whitespace.
//
// Unknown verbs, including an empty line, parse as ir.VerbUnknown without
// error; the interpreter treats them as end of input.
func ParseCommand(line string) (ir.Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ir.Command{Verb: ir.VerbUnknown, Line: line}, nil
	}

	verb := ir.Verb(fields[0])
	args := fields[1:]
	if !ir.KnownVerbs[verb] {
		return ir.Command{Verb: ir.VerbUnknown, Args: args, Line: line}, nil
	}

	switch verb {
	case ir.VerbPrereq:
		if len(args) == 0 {
			return ir.Command{}, &ParseError{
				Code:    ErrCodeMissingArgument,
				Line:    line,
				Message: "PREREQ requires a subject",
			}
		}
	case ir.VerbLearn, ir.VerbForget:
		if len(args) == 0 {
			return ir.Command{}, &ParseError{
				Code:    ErrCodeMissingArgument,
				Line:    line,
				Message: fmt.Sprintf("%s requires an item", verb),
			}
		}
		if len(args) > 1 {
			return ir.Command{}, &ParseError{
				Code:    ErrCodeExtraArgument,
				Line:    line,
				Message: fmt.Sprintf("%s takes exactly one item, got %d", verb, len(args)),
			}
		}
	}

	return ir.Command{Verb: verb, Args: args, Line: line}, nil
}
