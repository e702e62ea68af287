package engine

import (
	"fmt"

	"github.com/roach88/spellbook/internal/ir"
)

// PrereqStore holds prerequisite relations in insertion order.
//
// INVARIANTS:
//   - Relations are append-only; indices are stable for the engine lifetime
//   - first[name] is the index of the first relation whose subject == name
type PrereqStore struct {
	relations []relation
	first     map[string]int
}

type relation struct {
	subject  string
	requires []string
}

// NewPrereqStore creates an empty store.
func NewPrereqStore() *PrereqStore {
	return &PrereqStore{first: make(map[string]int)}
}

// Add appends a relation verbatim. Duplicate subjects and self-references
// are accepted. The requirement slice is copied.
func (s *PrereqStore) Add(subject string, requires []string) int {
	reqs := make([]string, len(requires))
	copy(reqs, requires)

	idx := len(s.relations)
	s.relations = append(s.relations, relation{subject: subject, requires: reqs})
	if _, ok := s.first[subject]; !ok {
		s.first[subject] = idx
	}
	return idx
}

// Find returns the index of the first relation whose subject equals name.
// Matching is exact: "fire" never finds "fireball".
func (s *PrereqStore) Find(name string) (int, bool) {
	idx, ok := s.first[name]
	return idx, ok
}

// Subject returns the subject of the relation at idx.
func (s *PrereqStore) Subject(idx int) string {
	return s.at(idx, "Subject").subject
}

// Requires returns the requirements of the relation at idx.
// The returned slice must not be modified.
func (s *PrereqStore) Requires(idx int) []string {
	return s.at(idx, "Requires").requires
}

// At returns a copy of the relation at idx. An out-of-range index panics
// with *InvariantError.
func (s *PrereqStore) At(idx int) ir.Relation {
	r := s.at(idx, "At")
	reqs := make([]string, len(r.requires))
	copy(reqs, r.requires)
	return ir.Relation{Subject: r.subject, Requires: reqs}
}

// Len returns the number of relations.
func (s *PrereqStore) Len() int {
	return len(s.relations)
}

func (s *PrereqStore) at(idx int, op string) relation {
	if idx < 0 || idx >= len(s.relations) {
		panic(&InvariantError{
			Op:      "PrereqStore." + op,
			Message: fmt.Sprintf("relation index %d out of range [0, %d)", idx, len(s.relations)),
		})
	}
	return s.relations[idx]
}
