package vectorstore

import (
	"testing"

	"github.com/google/uuid"
)

func TestQuestionID_Deterministic(t *testing.T) {
	a := QuestionID("2026-08-01", "Which article covers emergencies?")
	b := QuestionID("2026-08-01", "Which article covers emergencies?")

	if a != b {
		t.Errorf("same inputs should produce the same ID: %q vs %q", a, b)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("ID should be a valid UUID: %v", err)
	}
}

func TestQuestionID_DistinctInputs(t *testing.T) {
	base := QuestionID("2026-08-01", "Which article covers emergencies?")

	if QuestionID("2026-08-02", "Which article covers emergencies?") == base {
		t.Error("different dates should produce different IDs")
	}
	if QuestionID("2026-08-01", "Who appoints the governor?") == base {
		t.Error("different questions should produce different IDs")
	}
}
