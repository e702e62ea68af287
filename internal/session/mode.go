package session

import "fmt"

// Mode selects how the interpreter reacts to cycles in the relation graph.
type Mode string

const (
	// ModePlain never checks for cycles.
	ModePlain Mode = "plain"

	// ModeCheck reports that a cycle exists and blocks further resolution.
	ModeCheck Mode = "check"

	// ModeLongest also names the relation implicated in the longest cycle.
	ModeLongest Mode = "longest"

	// ModeShortest also names the relation implicated in the shortest cycle.
	ModeShortest Mode = "shortest"
)

// Modes lists every mode in documentation order.
var Modes = []Mode{ModePlain, ModeCheck, ModeLongest, ModeShortest}

// ParseMode converts a flag or config value to a Mode.
// An empty string selects ModePlain.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModePlain, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q (want plain, check, longest or shortest)", s)
}

// checksCycles reports whether PREREQ triggers cycle analysis.
func (m Mode) checksCycles() bool {
	return m == ModeCheck || m == ModeLongest || m == ModeShortest
}
