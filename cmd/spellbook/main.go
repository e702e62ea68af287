/*
spellbook interprets prerequisite-aware spell learning scripts.

Usage:

	spellbook <command> [arguments]

Commands:

	spellbook run       Execute a command script and print its transcript
	spellbook test      Run YAML transcript scenarios
	spellbook compile   Render CUE spellbooks to command scripts
	spellbook validate  Check CUE spellbooks without running them
	spellbook trace     Print a recorded session transcript
	spellbook replay    Re-execute recorded sessions and verify determinism

See 'spellbook help <command>' for more information on a specific command.
*/
package main

import (
	"os"

	"github.com/roach88/spellbook/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
