package harness

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/spellbook/internal/ir"
)

// ScenarioNotFoundError is returned when a book references a scenario file
// that doesn't exist.
type ScenarioNotFoundError struct {
	Book         string
	ScenarioPath string
	ResolvedPath string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf(
		"book %q references scenario file %q which does not exist (resolved to: %s)",
		e.Book,
		e.ScenarioPath,
		e.ResolvedPath,
	)
}

// ExtractScenarios resolves a book's scenario references relative to
// bookDir and checks that each file exists.
//
// A book with no scenarios returns an empty slice.
func ExtractScenarios(book *ir.Book, bookDir string) ([]string, error) {
	paths := []string{}
	for _, ref := range book.Scenarios {
		path := ref
		if !filepath.IsAbs(path) {
			path = filepath.Join(bookDir, path)
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, &ScenarioNotFoundError{
				Book:         book.Name,
				ScenarioPath: ref,
				ResolvedPath: path,
			}
		}
		paths = append(paths, path)
	}
	return paths, nil
}
