package compiler

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/roach88/spellbook/internal/ir"
	"github.com/roach88/spellbook/internal/session"
)

// Validation error codes (E120-E129)
const (
	ErrEmptyBook         = "E120" // no relations and no script
	ErrInvalidSpellName  = "E121" // empty or whitespace-bearing name
	ErrDuplicateSpell    = "E122" // subject declared twice; later ones are dead
	ErrInvalidScriptLine = "E123" // known verb with bad operands
	ErrTerminatingLine   = "E124" // unknown verb ends the session early
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled book.
// Returns all errors found (does not fail-fast).
func Validate(b *ir.Book) []ValidationError {
	var errs []ValidationError

	if len(b.Relations) == 0 && len(b.Script) == 0 {
		errs = append(errs, ValidationError{
			Field:   "book",
			Message: fmt.Sprintf("book %q declares no relations and no script", b.Name),
			Code:    ErrEmptyBook,
		})
	}

	declared := make(map[string]int)
	for i, rel := range b.Relations {
		field := fmt.Sprintf("relations[%d]", i)

		if !validName(rel.Subject) {
			errs = append(errs, ValidationError{
				Field:   field + ".spell",
				Message: fmt.Sprintf("invalid spell name %q", rel.Subject),
				Code:    ErrInvalidSpellName,
			})
		}
		for j, req := range rel.Requires {
			if !validName(req) {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.requires[%d]", field, j),
					Message: fmt.Sprintf("invalid spell name %q", req),
					Code:    ErrInvalidSpellName,
				})
			}
		}

		// Lookup stops at the first declaration, so later ones never apply.
		if first, dup := declared[rel.Subject]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".spell",
				Message: fmt.Sprintf("spell %q already declared at relations[%d]; this declaration is never consulted", rel.Subject, first),
				Code:    ErrDuplicateSpell,
			})
			continue
		}
		declared[rel.Subject] = i
	}

	for i, line := range b.Script {
		field := fmt.Sprintf("script[%d]", i)

		cmd, err := session.ParseCommand(line)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: err.Error(),
				Code:    ErrInvalidScriptLine,
			})
			continue
		}
		if cmd.Verb == ir.VerbUnknown {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("line %q ends the session; %d later line(s) would never run", line, len(b.Script)-i-1),
				Code:    ErrTerminatingLine,
			})
		}
	}

	return errs
}

// validName reports whether name is a single whitespace-free token.
func validName(name string) bool {
	return name != "" && !strings.ContainsFunc(name, unicode.IsSpace)
}
