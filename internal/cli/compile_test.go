package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoBooks = `
book: fire: {
	relations: [{spell: "fireball", requires: ["spark"]}]
	script: ["LEARN fireball"]
}
book: frost: {
	relations: [{spell: "blizzard", requires: ["ice", "wind"]}]
}
`

var fireBookLines = []string{
	"PREREQ inferno fireball fuel",
	"PREREQ fireball spark",
	"LEARN shield",
	"LEARN inferno",
	"ENUM",
}

func TestCompilePrintsScript(t *testing.T) {
	book := writeFile(t, t.TempDir(), "fire.cue", fireBook)

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), book)
	require.NoError(t, err)
	assert.Equal(t, joinLines(fireBookLines), out)
}

func TestCompiledScriptRunsLikeTheBook(t *testing.T) {
	dir := t.TempDir()
	book := writeFile(t, dir, "fire.cue", fireBook)
	script := filepath.Join(dir, "fire.txt")

	_, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), "-o", script, book)
	require.NoError(t, err)

	out, _, err := execute(NewRunCommand(&RootOptions{Format: "text"}), script)
	require.NoError(t, err)
	assert.Equal(t, joinLines(fireBookTranscript), out)
}

func TestCompileWritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	book := writeFile(t, dir, "fire.cue", fireBook)
	outPath := filepath.Join(dir, "fire.txt")

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), "--output", outPath, book)
	require.NoError(t, err)
	assert.Equal(t, "✓ Compiled book fire (2 relation(s), 5 line(s)) to "+outPath+"\n", out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, joinLines(fireBookLines), string(data))
}

func TestCompileSelectsBook(t *testing.T) {
	book := writeFile(t, t.TempDir(), "books.cue", twoBooks)

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), "--book", "frost", book)
	require.NoError(t, err)
	assert.Equal(t, "PREREQ blizzard ice wind\n", out)
}

func TestCompileSeveralBooksNeedSelection(t *testing.T) {
	book := writeFile(t, t.TempDir(), "books.cue", twoBooks)

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), book)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "2 books found; select one with --book")
}

func TestCompileUnknownBook(t *testing.T) {
	book := writeFile(t, t.TempDir(), "books.cue", twoBooks)

	_, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), "--book", "storm", book)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNoBooks)
	assert.Contains(t, err.Error(), `book "storm" not found`)
}

func TestCompileJSONListsEveryBook(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_fire.cue", fireBook)
	writeFile(t, dir, "b_books.cue", twoBooks)

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), dir)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Books, 3)

	fire := resp.Data.Books[0]
	assert.Equal(t, "fire", fire.Name)
	assert.Equal(t, filepath.Join(dir, "a_fire.cue"), fire.File)
	assert.Equal(t, 2, fire.Relations)
	assert.Equal(t, fireBookLines, fire.Lines)
	assert.Len(t, fire.Hash, 64)

	assert.Equal(t, "fire", resp.Data.Books[1].Name)
	assert.Equal(t, "frost", resp.Data.Books[2].Name)
	assert.NotEqual(t, fire.Hash, resp.Data.Books[1].Hash, "different relations hash differently")
}

func TestCompileHashIsStable(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "one/fire.cue", fireBook)
	second := writeFile(t, dir, "two/fire.cue", "// same book, different file\n"+fireBook)

	hashOf := func(path string) string {
		out, _, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), path)
		require.NoError(t, err)
		var resp struct {
			Data CompilationResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		require.Len(t, resp.Data.Books, 1)
		return resp.Data.Books[0].Hash
	}
	assert.Equal(t, hashOf(first), hashOf(second))
}

func TestCompileErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty/notes.txt", "not a book")
	broken := writeFile(t, dir, "broken.cue", "book: fire: {\n\tscript: [\"LEARN fireball\"]\n}\n")
	noBooks := writeFile(t, dir, "spells.cue", "spells: [\"fireball\"]\n")
	badSpell := writeFile(t, dir, "bad.cue", "book: fire: {\n\trelations: [{requires: [\"spark\"]}]\n}\n")

	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing path", filepath.Join(dir, "absent"), ErrCodeNotFound},
		{"no cue files", filepath.Join(dir, "empty"), ErrCodeNoFiles},
		{"missing relations", broken, ErrCodeRelations},
		{"no book field", noBooks, ErrCodeNoBooks},
		{"missing spell", badSpell, ErrCodeSpellField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), tt.path)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "✗ Compilation failed")
			assert.Contains(t, out, tt.code+": ")
		})
	}
}

func TestCompileErrorsJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.cue", "book: fire: {\n\tscript: []\n}\n")
	writeFile(t, dir, "b.cue", "book: frost: {\n\trelations: \"ice\"\n}\n")

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 error(s)")

	var resp struct {
		Status string     `json:"status"`
		Error  *CLIError  `json:"error"`
		Data   []CLIError `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeRelations, resp.Error.Code)
	require.Len(t, resp.Data, 2)
	assert.Contains(t, resp.Data[0].Message, "a.cue")
	assert.Contains(t, resp.Data[1].Message, "b.cue")
}
