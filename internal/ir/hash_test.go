package ir

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandIDDeterminism(t *testing.T) {
	id1, err := CommandID("session-1", 1, "LEARN fireball")
	require.NoError(t, err)
	id2, err := CommandID("session-1", 1, "LEARN fireball")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 64)
	_, err = hex.DecodeString(id1)
	assert.NoError(t, err)
}

func TestCommandIDChangesWithInput(t *testing.T) {
	base := MustCommandID("session-1", 1, "LEARN fireball")

	assert.NotEqual(t, base, MustCommandID("session-2", 1, "LEARN fireball"))
	assert.NotEqual(t, base, MustCommandID("session-1", 2, "LEARN fireball"))
	assert.NotEqual(t, base, MustCommandID("session-1", 1, "LEARN spark"))
}

func TestTranscriptHashOrderSensitive(t *testing.T) {
	a, err := TranscriptHash([]string{"LEARN a", "   Learning a"})
	require.NoError(t, err)
	b, err := TranscriptHash([]string{"   Learning a", "LEARN a"})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDomainSeparationPreventsCollision(t *testing.T) {
	data := []byte(`["x"]`)
	assert.NotEqual(t,
		hashWithDomain(DomainCommand, data),
		hashWithDomain(DomainTranscript, data))
}

func TestBookHashStable(t *testing.T) {
	book := Book{
		Name:      "basics",
		Relations: []Relation{{Subject: "fireball", Requires: []string{"spark"}}},
		Script:    []string{"LEARN fireball"},
	}

	h1, err := BookHash(book)
	require.NoError(t, err)
	h2, err := BookHash(book)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	book.Script = append(book.Script, "ENUM")
	h3, err := BookHash(book)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}
