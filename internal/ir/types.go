package ir

import "strings"

// Verb is the leading token of a command line.
type Verb string

const (
	VerbPrereq  Verb = "PREREQ"
	VerbLearn   Verb = "LEARN"
	VerbForget  Verb = "FORGET"
	VerbEnum    Verb = "ENUM"
	VerbUnknown Verb = ""
)

// KnownVerbs lists the verbs the interpreter executes.
var KnownVerbs = map[Verb]bool{
	VerbPrereq: true,
	VerbLearn:  true,
	VerbForget: true,
	VerbEnum:   true,
}

// Relation is one declared prerequisite record: a subject and the ordered
// items it requires.
type Relation struct {
	Subject  string   `json:"subject"`
	Requires []string `json:"requires"`
}

// Line renders the relation as a PREREQ command line.
func (r Relation) Line() string {
	parts := append([]string{string(VerbPrereq), r.Subject}, r.Requires...)
	return strings.Join(parts, " ")
}

// Command is a parsed command line. Line keeps the raw text for echoing.
type Command struct {
	Verb Verb     `json:"verb"`
	Args []string `json:"args"`
	Line string   `json:"line"`
}

// Relation returns the relation declared by a PREREQ command.
// The second result is false for any other verb.
func (c Command) Relation() (Relation, bool) {
	if c.Verb != VerbPrereq || len(c.Args) == 0 {
		return Relation{}, false
	}
	reqs := make([]string, len(c.Args)-1)
	copy(reqs, c.Args[1:])
	return Relation{Subject: c.Args[0], Requires: reqs}, true
}

// Item returns the single argument of LEARN and FORGET.
func (c Command) Item() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// Book is a compiled declarative spellbook.
type Book struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Relations   []Relation `json:"relations"`
	Script      []string   `json:"script"`

	// Scenarios lists harness scenario files that exercise this book,
	// relative to the book's directory.
	Scenarios []string `json:"scenarios,omitempty"`
}

// Lines renders the book as a command script: one PREREQ line per relation
// in declaration order, followed by the script lines.
func (b Book) Lines() []string {
	lines := make([]string, 0, len(b.Relations)+len(b.Script))
	for _, r := range b.Relations {
		lines = append(lines, r.Line())
	}
	return append(lines, b.Script...)
}
