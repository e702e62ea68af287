package testutil

import "strings"

// Script splits a raw string literal into command lines.
//
// A single leading and trailing newline are dropped, and the tab
// indentation of the first line is removed from every line, so scripts can
// be written indented inside test functions:
//
//	lines := testutil.Script(`
//		PREREQ fireball spark
//		LEARN fireball
//	`)
func Script(text string) []string {
	text = strings.TrimPrefix(text, "\n")
	text = strings.TrimRight(text, "\t")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	indent := lines[0][:len(lines[0])-len(strings.TrimLeft(lines[0], "\t"))]
	for i, l := range lines {
		lines[i] = strings.TrimPrefix(l, indent)
	}
	return lines
}
