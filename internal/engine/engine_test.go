package engine

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/spellbook/internal/ir"
)

func TestNew_Empty(t *testing.T) {
	e := New()

	assert.Equal(t, 0, e.RelationCount())
	assert.Empty(t, e.Learned())
	assert.Empty(t, e.Enum())
	assert.False(t, e.HasCycle())
}

func TestEngine_RelationsAreCopies(t *testing.T) {
	e := New()
	e.AddRelation("fireball", []string{"spark"})
	e.AddRelation("lonely", nil)

	rels := e.Relations()
	assert.Equal(t, []ir.Relation{
		{Subject: "fireball", Requires: []string{"spark"}},
		{Subject: "lonely", Requires: []string{}},
	}, rels)

	rels[0].Requires[0] = "mutated"
	assert.Equal(t, "spark", e.Relations()[0].Requires[0])
}

func TestEngine_WithLoggerReceivesDebugRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e := New(WithLogger(logger))
	e.AddRelation("fireball", []string{"spark"})
	e.Learn("fireball")
	e.Forget("fireball")

	logs := buf.String()
	assert.Contains(t, logs, "relation added")
	assert.Contains(t, logs, "subject=fireball")
	assert.Contains(t, logs, "learned")
	assert.Contains(t, logs, "forgot")
}

func TestEngine_WithNilLoggerKeepsDefault(t *testing.T) {
	e := New(WithLogger(nil))

	assert.NotPanics(t, func() {
		e.Learn("spark")
	})
}

func TestInvariantError_Message(t *testing.T) {
	err := &InvariantError{Op: "PrereqStore.At", Message: "relation index 3 out of range [0, 1)"}

	assert.Equal(t, "engine invariant violated in PrereqStore.At: relation index 3 out of range [0, 1)", err.Error())
	assert.True(t, IsInvariantError(err))
	assert.False(t, IsInvariantError(assert.AnError))
}
