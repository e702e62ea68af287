package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spellbook/internal/compiler"
)

const cyclicBook = `
book: loop: {
	relations: [
		{spell: "a", requires: ["b"]},
		{spell: "b", requires: ["a"]},
	]
	script: ["LEARN a"]
}
`

const invalidBook = `
book: messy: {
	relations: [
		{spell: "fireball", requires: ["spark"]},
		{spell: "fireball", requires: ["ember"]},
	]
	script: ["LEARN", "LEARN fireball"]
}
`

type validateResponse struct {
	Status string           `json:"status"`
	Data   ValidationResult `json:"data"`
	Error  *CLIError        `json:"error"`
}

func TestValidateValidBook(t *testing.T) {
	book := writeFile(t, t.TempDir(), "fire.cue", fireBook)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), book)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ fire ("+book+"): 2 relation(s), 3 script line(s)\n")
	assert.Contains(t, out, "✓ All books valid\n")
}

func TestValidateCycleIsAWarning(t *testing.T) {
	book := writeFile(t, t.TempDir(), "loop.cue", cyclicBook)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), book)
	require.NoError(t, err)
	assert.Contains(t, out, "⚠ loop")
	assert.Contains(t, out, "  warning: prerequisite cycle")
	assert.Contains(t, out, "✓ All books valid (1 warning(s))")
}

func TestValidateStrictFailsOnCycle(t *testing.T) {
	book := writeFile(t, t.TempDir(), "loop.cue", cyclicBook)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), "--strict", book)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp validateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_CYCLE", resp.Error.Code)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, 0, resp.Data.Errors)
	assert.Equal(t, 1, resp.Data.Warnings)
	require.Len(t, resp.Data.Books, 1)
	assert.Equal(t, []string{"a", "b"}, resp.Data.Books[0].Warnings[0].Spells)
}

func TestValidateReportsEveryError(t *testing.T) {
	book := writeFile(t, t.TempDir(), "messy.cue", invalidBook)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), book)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp validateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, compiler.ErrDuplicateSpell, resp.Error.Code)
	require.Len(t, resp.Data.Books, 1)

	var codes []string
	for _, e := range resp.Data.Books[0].Errors {
		codes = append(codes, e.Code)
	}
	assert.Equal(t, []string{compiler.ErrDuplicateSpell, compiler.ErrInvalidScriptLine}, codes)
	assert.Equal(t, "relations[1].spell", resp.Data.Books[0].Errors[0].Field)
	assert.Equal(t, "script[0]", resp.Data.Books[0].Errors[1].Field)
}

func TestValidateTextErrors(t *testing.T) {
	book := writeFile(t, t.TempDir(), "messy.cue", invalidBook)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), book)
	require.Error(t, err)
	assert.Contains(t, out, "✗ messy")
	assert.Contains(t, out, "  E122 relations[1].spell: ")
	assert.Contains(t, out, "  E123 script[0]: ")
	assert.Contains(t, out, "✗ validation failed with 2 error(s), 0 warning(s)")
}

func TestValidateScenarioReferences(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scenarios/good.yaml", passingScenario)
	writeFile(t, dir, "scenarios/bad.yaml", "name: bad\ndescription: nothing checked\ncommands: [ENUM]\n")

	tests := []struct {
		name      string
		scenarios string
		code      string
		field     string
	}{
		{"missing file", `["scenarios/absent.yaml"]`, ErrCodeMissingScenario, "scenarios"},
		{"invalid scenario", `["scenarios/good.yaml", "scenarios/bad.yaml"]`, ErrCodeInvalidScenario, "scenarios[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := writeFile(t, dir, "fire.cue", `
book: fire: {
	relations: [{spell: "fireball", requires: ["spark"]}]
	scenarios: `+tt.scenarios+`
}
`)
			out, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), book)
			require.Error(t, err)

			var resp validateResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.Len(t, resp.Data.Books, 1)
			require.Len(t, resp.Data.Books[0].Errors, 1)
			assert.Equal(t, tt.code, resp.Data.Books[0].Errors[0].Code)
			assert.Equal(t, tt.field, resp.Data.Books[0].Errors[0].Field)
		})
	}
}

func TestValidateResolvesScenarios(t *testing.T) {
	dir := t.TempDir()
	scenario := writeFile(t, dir, "scenarios/good.yaml", passingScenario)
	book := writeFile(t, dir, "books/fire.cue", `
book: fire: {
	relations: [{spell: "fireball", requires: ["spark"]}]
	scenarios: ["../scenarios/good.yaml"]
}
`)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), book)
	require.NoError(t, err)

	var resp validateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, []string{scenario}, resp.Data.Books[0].Scenarios)
}

func TestValidateKeepsGoingPastUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_broken.cue", "book: fire: {\n\tscript: []\n}\n")
	writeFile(t, dir, "b_fire.cue", fireBook)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ (unreadable)")
	assert.Contains(t, out, "  E101 load: ")
	assert.Contains(t, out, "✓ fire")
}

func TestValidateHarnessBooks(t *testing.T) {
	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}),
		filepath.Join("..", "harness", "testdata", "books"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ fire")
}

func TestValidateCommandErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty/notes.txt", "not a book")

	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing path", filepath.Join(dir, "absent"), ErrCodeNotFound},
		{"no cue files", filepath.Join(dir, "empty"), ErrCodeNoFiles},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), tt.path)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}
