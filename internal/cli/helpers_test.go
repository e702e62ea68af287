package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spellbook/internal/session"
)

const fireballScript = `PREREQ fireball spark
LEARN fireball
FORGET spark
FORGET fireball
ENUM
`

var fireballTranscript = []string{
	"PREREQ fireball spark",
	"LEARN fireball",
	"   Learning spark",
	"   Learning fireball",
	"FORGET spark",
	"   spark is still needed",
	"FORGET fireball",
	"   Forgetting fireball",
	"   Forgetting spark",
	"ENUM",
}

const cyclicScript = `PREREQ a b
PREREQ b c
PREREQ c a
LEARN a
FORGET a
ENUM
PREREQ d e
`

const fireBook = `
book: fire: {
	relations: [
		{spell: "inferno", requires: ["fireball", "fuel"]},
		{spell: "fireball", requires: ["spark"]},
	]
	script: ["LEARN shield", "LEARN inferno", "ENUM"]
}
`

var fireBookTranscript = []string{
	"PREREQ inferno fireball fuel",
	"PREREQ fireball spark",
	"LEARN shield",
	"   Learning shield",
	"LEARN inferno",
	"   Learning spark",
	"   Learning fireball",
	"   Learning fuel",
	"   Learning inferno",
	"ENUM",
	"   shield",
	"   spark",
	"   fireball",
	"   fuel",
	"   inferno",
}

// writeFile writes content to dir/name, creating parent directories.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs cmd with args and returns its stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	if args == nil {
		args = []string{} // nil makes cobra fall back to os.Args
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// joinLines renders lines the way commands print transcripts.
func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// recordSession runs script through "run --db" under a fixed session id.
func recordSession(t *testing.T, dbPath, id, script string, args ...string) {
	t.Helper()
	opts := &RunOptions{RootOptions: &RootOptions{Format: "text"}}
	opts.IDGenerator = session.NewFixedGenerator(id)
	args = append(append([]string{"--db", dbPath}, args...), script)
	_, _, err := execute(newRunCommand(opts), args...)
	require.NoError(t, err)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
