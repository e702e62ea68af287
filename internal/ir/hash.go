package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainCommand    = "spellbook/command/v1"
	DomainTranscript = "spellbook/transcript/v1"
	DomainBook       = "spellbook/book/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CommandID computes the content-addressed id of one executed command.
// The id is stable across replays given the same session, seq and line.
func CommandID(sessionID string, seq int64, line string) (string, error) {
	obj := Object{
		"session_id": String(sessionID),
		"seq":        Int(seq),
		"line":       String(line),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CommandID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCommand, canonical), nil
}

// TranscriptHash hashes a full transcript. Replay compares these to prove
// that re-executing the recorded commands yields the same output.
func TranscriptHash(lines []string) (string, error) {
	canonical, err := MarshalCanonical(Strings(lines))
	if err != nil {
		return "", fmt.Errorf("TranscriptHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTranscript, canonical), nil
}

// BookHash identifies a compiled spellbook by its relations and script.
func BookHash(b Book) (string, error) {
	rels := make(Array, len(b.Relations))
	for i, r := range b.Relations {
		rels[i] = Object{
			"subject":  String(r.Subject),
			"requires": Strings(r.Requires),
		}
	}
	obj := Object{
		"name":      String(b.Name),
		"relations": rels,
		"script":    Strings(b.Script),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("BookHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainBook, canonical), nil
}

// MustCommandID is CommandID for inputs known to be valid (tests, fixtures).
func MustCommandID(sessionID string, seq int64, line string) string {
	id, err := CommandID(sessionID, seq, line)
	if err != nil {
		panic(err)
	}
	return id
}
