package compiler

import (
	"fmt"
	"strings"
	"unicode"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/spellbook/internal/ir"
)

// CompileBook parses a CUE value into a Book.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the book struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`book: fire: { relations: [...] }`)
//	b, err := CompileBook(v.LookupPath(cue.ParsePath("book.fire")))
func CompileBook(v cue.Value) (*ir.Book, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	b := &ir.Book{
		Relations: []ir.Relation{},
		Script:    []string{},
	}

	// Book name is the struct label; quoted labels lose their quotes.
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		b.Name = strings.Trim(labels[len(labels)-1].String(), `"`)
	}

	descVal := v.LookupPath(cue.ParsePath("description"))
	if descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		b.Description = desc
	}

	relsVal := v.LookupPath(cue.ParsePath("relations"))
	if !relsVal.Exists() {
		return nil, &CompileError{
			Field:   "relations",
			Message: "relations are required",
			Pos:     v.Pos(),
		}
	}
	rels, err := parseRelations(relsVal)
	if err != nil {
		return nil, err
	}
	b.Relations = rels

	scriptVal := v.LookupPath(cue.ParsePath("script"))
	if scriptVal.Exists() {
		b.Script, err = parseStrings(scriptVal, "script")
		if err != nil {
			return nil, err
		}
	}

	scenariosVal := v.LookupPath(cue.ParsePath("scenarios"))
	if scenariosVal.Exists() {
		b.Scenarios, err = parseStrings(scenariosVal, "scenarios")
		if err != nil {
			return nil, err
		}
	}

	return b, nil
}

// parseRelations reads the relations list in declaration order.
func parseRelations(v cue.Value) ([]ir.Relation, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	rels := []ir.Relation{}
	for i := 0; iter.Next(); i++ {
		relVal := iter.Value()
		field := fmt.Sprintf("relations[%d]", i)

		spellVal := relVal.LookupPath(cue.ParsePath("spell"))
		if !spellVal.Exists() {
			return nil, &CompileError{
				Field:   field + ".spell",
				Message: "spell is required",
				Pos:     relVal.Pos(),
			}
		}
		spell, err := spellVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if err := checkName(spell); err != nil {
			return nil, &CompileError{
				Field:   field + ".spell",
				Message: err.Error(),
				Pos:     spellVal.Pos(),
			}
		}

		rel := ir.Relation{Subject: spell, Requires: []string{}}
		reqVal := relVal.LookupPath(cue.ParsePath("requires"))
		if reqVal.Exists() {
			rel.Requires, err = parseStrings(reqVal, field+".requires")
			if err != nil {
				return nil, err
			}
			for j, req := range rel.Requires {
				if err := checkName(req); err != nil {
					return nil, &CompileError{
						Field:   fmt.Sprintf("%s.requires[%d]", field, j),
						Message: err.Error(),
						Pos:     reqVal.Pos(),
					}
				}
			}
		}

		rels = append(rels, rel)
	}
	return rels, nil
}

// parseStrings reads a list of concrete strings.
func parseStrings(v cue.Value, field string) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: "must be a list of strings",
			Pos:     v.Pos(),
		}
	}

	out := []string{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// checkName rejects names that would not survive a round trip through a
// whitespace-tokenised command line.
func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("name must be non-empty")
	}
	if strings.ContainsFunc(name, unicode.IsSpace) {
		return fmt.Errorf("name %q must not contain whitespace", name)
	}
	return nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
