package testutil

// DefaultSessionID is returned by FixedSessionGenerator when none is given.
const DefaultSessionID = "test-session-default"

// FixedSessionGenerator returns the same session id every time.
//
// With a fixed id, command ids are stable, so the same scenario produces a
// byte-identical recorded session on every run.
//
// Unlike session.FixedGenerator, which returns ids in sequence and panics
// when exhausted, this generator never runs out.
//
// Thread-safety: stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a generator for id.
// An empty id falls back to DefaultSessionID.
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = DefaultSessionID
	}
	return &FixedSessionGenerator{id: id}
}

// Generate implements session.IDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
