package engine

import (
	"io"
	"log/slog"

	"github.com/roach88/spellbook/internal/ir"
)

// Indent prefixes every response line the engine produces.
const Indent = "   "

// Engine owns one session's prerequisite graph and learned set.
//
// Thread-safety model:
//   - Engine is NOT safe for concurrent use
//   - session.Session wraps it with a mutex when sharing is needed
type Engine struct {
	prereqs *PrereqStore
	ledger  *Ledger
	logger  *slog.Logger

	firstRelationAsRoot bool
	interiorCycles      bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithFirstRelationAsRoot makes cycle analysis start traversals from
// relation 0 as well. By default relation 0 is only reached as a neighbour.
func WithFirstRelationAsRoot() EngineOption {
	return func(e *Engine) {
		e.firstRelationAsRoot = true
	}
}

// WithInteriorCycles lets the longest and shortest searches close a cycle
// on any subject already on the current path, not only the path's root.
func WithInteriorCycles() EngineOption {
	return func(e *Engine) {
		e.interiorCycles = true
	}
}

// WithLogger sets the logger used for debug tracing of resolution steps.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an empty engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		prereqs: NewPrereqStore(),
		ledger:  NewLedger(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddRelation records that subject requires each item in requires, in order.
// It returns the index of the new relation.
func (e *Engine) AddRelation(subject string, requires []string) int {
	idx := e.prereqs.Add(subject, requires)
	e.logger.Debug("relation added",
		"index", idx,
		"subject", subject,
		"requires", len(requires))
	return idx
}

// Enum renders every learned item, in acquisition order, as an indented line.
func (e *Engine) Enum() []string {
	items := e.ledger.Items()
	out := make([]string, len(items))
	for i, name := range items {
		out[i] = Indent + name
	}
	return out
}

// Learned returns the learned items in acquisition order.
func (e *Engine) Learned() []string {
	return e.ledger.Items()
}

// IsLearned reports whether name is currently learned.
func (e *Engine) IsLearned(name string) bool {
	return e.ledger.Has(name)
}

// Explicit returns the explicit flag recorded for a learned item.
func (e *Engine) Explicit(name string) (explicit, ok bool) {
	return e.ledger.Explicit(name)
}

// Relations returns a copy of every relation in insertion order.
func (e *Engine) Relations() []ir.Relation {
	out := make([]ir.Relation, e.prereqs.Len())
	for i := range out {
		out[i] = e.prereqs.At(i)
	}
	return out
}

// RelationCount returns the number of recorded relations.
func (e *Engine) RelationCount() int {
	return e.prereqs.Len()
}
