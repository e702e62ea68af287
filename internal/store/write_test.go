package store

import (
	"context"
	"testing"

	"github.com/roach88/spellbook/internal/ir"
)

func TestWriteSession_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec := createTestSession("s1")

	for i := 0; i < 2; i++ {
		if err := s.WriteSession(ctx, rec); err != nil {
			t.Fatalf("WriteSession() #%d failed: %v", i, err)
		}
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("sessions = %d, want 1", count)
	}
}

func TestWriteStep_WritesOutputsInOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	if err := s.WriteSession(ctx, createTestSession("s1")); err != nil {
		t.Fatalf("WriteSession() failed: %v", err)
	}

	step := createTestStep("s1", 1, ir.VerbLearn, "LEARN fireball",
		"   Learning spark", "   Learning fireball")
	if err := s.WriteStep(ctx, step); err != nil {
		t.Fatalf("WriteStep() failed: %v", err)
	}

	rows, err := s.db.Query("SELECT position, text FROM outputs WHERE command_id = ? ORDER BY position", step.ID)
	if err != nil {
		t.Fatalf("query outputs: %v", err)
	}
	defer rows.Close()

	var got []string
	for rows.Next() {
		var pos int
		var text string
		if err := rows.Scan(&pos, &text); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if pos != len(got) {
			t.Errorf("position = %d, want %d", pos, len(got))
		}
		got = append(got, text)
	}
	if len(got) != 2 || got[0] != "   Learning spark" || got[1] != "   Learning fireball" {
		t.Errorf("outputs = %v", got)
	}
}

func TestWriteStep_DuplicateIsNoop(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	if err := s.WriteSession(ctx, createTestSession("s1")); err != nil {
		t.Fatalf("WriteSession() failed: %v", err)
	}

	step := createTestStep("s1", 1, ir.VerbLearn, "LEARN spark", "   Learning spark")
	for i := 0; i < 2; i++ {
		if err := s.WriteStep(ctx, step); err != nil {
			t.Fatalf("WriteStep() #%d failed: %v", i, err)
		}
	}

	var commands, outputs int
	s.db.QueryRow("SELECT COUNT(*) FROM commands").Scan(&commands)
	s.db.QueryRow("SELECT COUNT(*) FROM outputs").Scan(&outputs)
	if commands != 1 || outputs != 1 {
		t.Errorf("commands = %d, outputs = %d, want 1 and 1", commands, outputs)
	}
}

func TestWriteStep_RequiresSession(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteStep(context.Background(), createTestStep("ghost", 1, ir.VerbEnum, "ENUM"))
	if err == nil {
		t.Error("expected foreign key error for unknown session")
	}
}
