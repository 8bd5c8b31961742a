// Package repository defines persistence interfaces and domain records.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// EvaluationRecord is one persisted quality evaluation. The pipeline core
// never persists results itself; the service layer saves records
// best-effort after evaluation completes.
type EvaluationRecord struct {
	ID                  uuid.UUID `json:"id"`
	Query               string    `json:"query"`
	Response            string    `json:"response"`
	Strategy            string    `json:"strategy"`
	ContextPrecision    float64   `json:"context_precision"`
	Faithfulness        float64   `json:"faithfulness"`
	AnswerCorrectness   float64   `json:"answer_correctness"`
	ContextRelevancy    float64   `json:"context_relevancy"`
	OverallScore        float64   `json:"overall_score"`
	EvaluationMethod    string    `json:"evaluation_method"`
	GroundTruthProvided bool      `json:"ground_truth_provided"`
	EvaluationTime      float64   `json:"evaluation_time"`
	CreatedAt           time.Time `json:"created_at"`
}

// EvaluationRepository stores and lists evaluation records.
type EvaluationRepository interface {
	// Save persists an evaluation record.
	Save(ctx context.Context, record *EvaluationRecord) error

	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]EvaluationRecord, error)
}
