package compiler

import (
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
	relations: [{spell: "chill"}]
	script: ["LEARN chill"]
}
`

func writeCUE(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_BooksInFieldOrder(t *testing.T) {
	path := writeCUE(t, t.TempDir(), "books.cue", twoBooks)

	books, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "fire", books[0].Name)
	assert.Equal(t, "frost", books[1].Name)
}

func TestLoadFile_NoBooks(t *testing.T) {
	path := writeCUE(t, t.TempDir(), "empty.cue", `other: 1`)

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no book declarations")
}

func TestLoadFile_SyntaxError(t *testing.T) {
	path := writeCUE(t, t.TempDir(), "broken.cue", `book: fire: {relations: [`)

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestLoadFile_CompileErrorNamesBook(t *testing.T) {
	path := writeCUE(t, t.TempDir(), "bad.cue", `book: broken: script: ["ENUM"]`)

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "book.broken")
	assert.Contains(t, err.Error(), "relations")
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
}

func TestLoadBook(t *testing.T) {
	path := writeCUE(t, t.TempDir(), "books.cue", twoBooks)

	b, err := LoadBook(path, "frost")
	require.NoError(t, err)
	assert.Equal(t, []string{"LEARN chill"}, b.Script)

	_, err = LoadBook(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declares 2 books")

	_, err = LoadBook(path, "wind")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"wind" not found`)
}

func TestLoadBook_SingleBookNeedsNoName(t *testing.T) {
	path := writeCUE(t, t.TempDir(), "one.cue", `book: solo: relations: [{spell: "x"}]`)

	b, err := LoadBook(path, "")
	require.NoError(t, err)
	assert.Equal(t, "solo", b.Name)
}

func TestLoadPath_Directory(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "b.cue", `book: second: relations: [{spell: "y"}]`)
	writeCUE(t, dir, "a.cue", `book: first: relations: [{spell: "x"}]`)
	writeCUE(t, dir, "nested/c.cue", `book: third: relations: [{spell: "z"}]`)
	writeCUE(t, dir, "notes.txt", "ignored")

	files, err := LoadPath(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "first", files[0].Books[0].Name)
	assert.Equal(t, "second", files[1].Books[0].Name)
	assert.Equal(t, "third", files[2].Books[0].Name)
	assert.Equal(t, filepath.Join(dir, "nested"), files[2].Dir())
}

func TestLoadPath_SingleFile(t *testing.T) {
	path := writeCUE(t, t.TempDir(), "books.cue", twoBooks)

	files, err := LoadPath(path)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, path, files[0].Path)
	assert.Len(t, files[0].Books, 2)
}

func TestLoadPath_EmptyDirectory(t *testing.T) {
	_, err := LoadPath(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CUE files")
}
