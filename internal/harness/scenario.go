package harness

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/spellbook/internal/compiler"
	"github.com/roach88/spellbook/internal/session"
)

// Scenario defines a transcript test.
// A scenario feeds command lines to a fresh session and checks the
// resulting transcript and final ledger.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Mode is the cycle policy: plain, check, longest or shortest.
	Mode string `yaml:"mode,omitempty"`

	// MaxCommands caps processing. Zero means session.DefaultMaxCommands.
	MaxCommands int `yaml:"max_commands,omitempty"`

	// FirstRelationAsRoot lets the first declared relation start a cycle
	// search.
	FirstRelationAsRoot bool `yaml:"first_relation_as_root,omitempty"`

	// InteriorCycles reports cycles that close on any node of the path.
	InteriorCycles bool `yaml:"interior_cycles,omitempty"`

	// SessionID is an optional fixed session id.
	// If empty, defaults to testutil.DefaultSessionID for deterministic
	// recorded command ids.
	SessionID string `yaml:"session_id,omitempty"`

	// Exactly one input source: inline commands, a script file, or a CUE
	// book. File paths are relative to the scenario file.
	Commands []string `yaml:"commands,omitempty"`
	Script   string   `yaml:"script,omitempty"`
	Book     string   `yaml:"book,omitempty"`

	// BookName selects a book when the CUE file declares several.
	BookName string `yaml:"book_name,omitempty"`

	// Expected transcript: inline lines or a solution file (at most one).
	Expect     []string `yaml:"expect,omitempty"`
	ExpectFile string   `yaml:"expect_file,omitempty"`

	// Assertions validate the final transcript and ledger.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// path is the file the scenario was loaded from, if any.
	path string
}

// Assertion validates the transcript or the final ledger.
type Assertion struct {
	// Type specifies the assertion type:
	// - "learned": every item in Items is learned
	// - "not_learned": no item in Items is learned
	// - "learned_order": the ledger equals Items exactly
	// - "output_contains": some line equals Text (ignoring indentation)
	// - "output_count": exactly Count lines equal Text
	// - "cycle_reported": a cycle report appeared (or not, if Reported
	//   is false)
	Type string `yaml:"type"`

	Items    []string `yaml:"items,omitempty"`
	Text     string   `yaml:"text,omitempty"`
	Count    int      `yaml:"count,omitempty"`
	Reported *bool    `yaml:"reported,omitempty"`
}

// Assertion type constants.
const (
	AssertLearned        = "learned"
	AssertNotLearned     = "not_learned"
	AssertLearnedOrder   = "learned_order"
	AssertOutputContains = "output_contains"
	AssertOutputCount    = "output_count"
	AssertCycleReported  = "cycle_reported"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Relative script, book and expect_file paths are resolved against the
// scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	dir := filepath.Dir(path)
	scenario.Script = resolve(dir, scenario.Script)
	scenario.Book = resolve(dir, scenario.Book)
	scenario.ExpectFile = resolve(dir, scenario.ExpectFile)
	scenario.path = path

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	return &scenario, nil
}

// FindScenarios returns every .yaml and .yml file under dir in lexical
// order.
func FindScenarios(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// Path returns the file the scenario was loaded from, or "".
func (s *Scenario) Path() string {
	return s.path
}

// SessionMode parses the scenario's mode.
func (s *Scenario) SessionMode() (session.Mode, error) {
	return session.ParseMode(s.Mode)
}

// Limit returns the effective command cap.
func (s *Scenario) Limit() int {
	if s.MaxCommands > 0 {
		return s.MaxCommands
	}
	return session.DefaultMaxCommands
}

// Lines returns the command lines the scenario feeds to the session.
func (s *Scenario) Lines() ([]string, error) {
	switch {
	case s.Commands != nil:
		return s.Commands, nil
	case s.Script != "":
		lines, err := ReadLines(s.Script)
		if err != nil {
			return nil, fmt.Errorf("script: %w", err)
		}
		return lines, nil
	case s.Book != "":
		b, err := compiler.LoadBook(s.Book, s.BookName)
		if err != nil {
			return nil, fmt.Errorf("book: %w", err)
		}
		return b.Lines(), nil
	}
	return nil, fmt.Errorf("scenario %q has no commands, script or book", s.Name)
}

// Expected returns the expected transcript truncated to the command cap.
// The second result is false when the scenario has no expectation.
func (s *Scenario) Expected() ([]string, bool, error) {
	switch {
	case s.Expect != nil:
		return TruncateSolution(s.Expect, s.Limit()), true, nil
	case s.ExpectFile != "":
		lines, err := ReadSolution(s.ExpectFile, s.Limit())
		if err != nil {
			return nil, false, err
		}
		return lines, true, nil
	}
	return nil, false, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if _, err := session.ParseMode(s.Mode); err != nil {
		return err
	}

	if s.MaxCommands < 0 {
		return fmt.Errorf("max_commands must be non-negative")
	}

	sources := 0
	if s.Commands != nil {
		sources++
	}
	if s.Script != "" {
		sources++
	}
	if s.Book != "" {
		sources++
	}
	if sources != 1 {
		return fmt.Errorf("exactly one of commands, script or book is required")
	}
	if s.BookName != "" && s.Book == "" {
		return fmt.Errorf("book_name requires book")
	}

	// Validate referenced paths exist
	for _, p := range []string{s.Script, s.Book} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", p)
		}
	}

	if s.Expect != nil && s.ExpectFile != "" {
		return fmt.Errorf("expect and expect_file are mutually exclusive")
	}

	if s.Expect == nil && s.ExpectFile == "" && len(s.Assertions) == 0 {
		return fmt.Errorf("scenario checks nothing: add expect, expect_file or assertions")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertLearned, AssertNotLearned:
		if len(a.Items) == 0 {
			return fmt.Errorf("assertions[%d]: items list is required for %s", index, a.Type)
		}
	case AssertLearnedOrder:
		// An empty list asserts an empty ledger.
	case AssertOutputContains:
		if strings.TrimSpace(a.Text) == "" {
			return fmt.Errorf("assertions[%d]: text is required for output_contains", index)
		}
	case AssertOutputCount:
		if strings.TrimSpace(a.Text) == "" {
			return fmt.Errorf("assertions[%d]: text is required for output_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for output_count", index)
		}
	case AssertCycleReported:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
