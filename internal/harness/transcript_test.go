package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{}},
		{"trailing newline", "a\nb\n", []string{"a", "b"}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"blank line kept", "a\n\nb\n", []string{"a", "", "b"}},
		{"single blank line", "\n", []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLines(tt.text))
		})
	}
}

func TestFormatLines(t *testing.T) {
	assert.Equal(t, []byte{}, FormatLines(nil))
	assert.Equal(t, "a\n   b\n", string(FormatLines([]string{"a", "   b"})))
	assert.Equal(t, []string{"a", "   b"}, SplitLines(string(FormatLines([]string{"a", "   b"}))))
}

func TestReadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.txt")
	require.NoError(t, os.WriteFile(path, []byte("PREREQ a b\nLEARN a\n"), 0o644))

	lines, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"PREREQ a b", "LEARN a"}, lines)

	_, err = ReadLines(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestTruncateSolution(t *testing.T) {
	lines := []string{"A", "   a1", "B", "   b1", "   b2", "C"}

	tests := []struct {
		limit int
		want  []string
	}{
		{1, []string{"A", "   a1"}},
		{2, []string{"A", "   a1", "B", "   b1", "   b2"}},
		{3, lines},
		{10, lines},
		{0, lines},
		{-1, lines},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TruncateSolution(lines, tt.limit), "limit %d", tt.limit)
	}
}

func TestTruncateSolution_LeadingResponsesKept(t *testing.T) {
	got := TruncateSolution([]string{"   stray", "A", "B"}, 1)
	assert.Equal(t, []string{"   stray", "A"}, got)
}

// Two-space indentation is not a response line.
func TestTruncateSolution_RequiresFullIndent(t *testing.T) {
	got := TruncateSolution([]string{"A", "  b", "C"}, 1)
	assert.Equal(t, []string{"A"}, got)
}

func TestReadSolution(t *testing.T) {
	lines, err := ReadSolution("testdata/solutions/fireball.soln", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"PREREQ fireball spark",
		"LEARN fireball",
		"   Learning spark",
		"   Learning fireball",
		"FORGET spark",
		"   spark is still needed",
	}, lines)
}

func TestCompare(t *testing.T) {
	match := Compare([]string{"a", "b"}, []string{"a", "b"})
	assert.True(t, match.Match)
	assert.Zero(t, match.Line)
	assert.Empty(t, match.Diff)

	assert.True(t, Compare(nil, []string{}).Match, "nil and empty are equal")

	changed := Compare([]string{"a", "x", "c"}, []string{"a", "b", "c"})
	assert.False(t, changed.Match)
	assert.Equal(t, 2, changed.Line)
	assert.Contains(t, changed.Diff, `"b"`)
	assert.Contains(t, changed.Diff, `"x"`)

	short := Compare([]string{"a"}, []string{"a", "b"})
	assert.False(t, short.Match)
	assert.Equal(t, 2, short.Line)

	long := Compare([]string{"a", "b", "c"}, []string{"a", "b"})
	assert.False(t, long.Match)
	assert.Equal(t, 3, long.Line)
}
