package harness

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/roach88/spellbook/internal/engine"
)

// ReadLines reads a text file into lines. A trailing newline does not
// produce a final empty line; CRLF endings are normalised.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return SplitLines(string(data)), nil
}

// SplitLines splits text the way ReadLines does.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" {
		return []string{}
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// FormatLines joins lines into newline-terminated text.
func FormatLines(lines []string) []byte {
	if len(lines) == 0 {
		return []byte{}
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

// ReadSolution reads an expected transcript and truncates it to the first
// limit commands. See TruncateSolution.
func ReadSolution(path string, limit int) ([]string, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("read solution: %w", err)
	}
	return TruncateSolution(lines, limit), nil
}

// TruncateSolution keeps the first limit commands of an expected transcript
// along with their responses. A line indented with engine.Indent is a
// response; any other line is a command. Non-positive limits keep
// everything.
func TruncateSolution(lines []string, limit int) []string {
	out := []string{}
	if limit <= 0 {
		return append(out, lines...)
	}

	commands := 0
	for _, line := range lines {
		response := strings.HasPrefix(line, engine.Indent)
		if !response {
			if commands == limit {
				break
			}
			commands++
		}
		out = append(out, line)
	}
	return out
}

// Comparison is the outcome of comparing two transcripts.
type Comparison struct {
	Match bool

	// Line is the 1-based index of the first differing line, 0 on a match.
	Line int

	// Diff is a go-cmp report (-want +got), empty on a match.
	Diff string
}

// Compare checks got against want line by line. Nil and empty transcripts
// are equal.
func Compare(got, want []string) Comparison {
	diff := cmp.Diff(want, got, cmpopts.EquateEmpty())
	if diff == "" {
		return Comparison{Match: true}
	}

	line := min(len(got), len(want)) + 1
	for i := 0; i < min(len(got), len(want)); i++ {
		if got[i] != want[i] {
			line = i + 1
			break
		}
	}
	return Comparison{Line: line, Diff: diff}
}
