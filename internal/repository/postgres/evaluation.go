package postgres

import (
	"context"
	"fmt"

	"github.com/quizmentor/rag/internal/repository"
)

// EvaluationRepo implements repository.EvaluationRepository
type EvaluationRepo struct {
	db *DB
}

// NewEvaluationRepo creates a new evaluation repository
func NewEvaluationRepo(db *DB) *EvaluationRepo {
	return &EvaluationRepo{db: db}
}

// Save persists an evaluation record
func (r *EvaluationRepo) Save(ctx context.Context, rec *repository.EvaluationRecord) error {
	query := `
		INSERT INTO evaluations (id, query, response, strategy, context_precision, faithfulness, answer_correctness, context_relevancy, overall_score, evaluation_method, ground_truth_provided, evaluation_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		rec.ID, rec.Query, rec.Response, rec.Strategy,
		rec.ContextPrecision, rec.Faithfulness, rec.AnswerCorrectness, rec.ContextRelevancy,
		rec.OverallScore, rec.EvaluationMethod, rec.GroundTruthProvided, rec.EvaluationTime,
		rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save evaluation: %w", err)
	}
	return nil
}

// ListRecent returns up to limit records, newest first
func (r *EvaluationRepo) ListRecent(ctx context.Context, limit int) ([]repository.EvaluationRecord, error) {
	query := `
		SELECT id, query, response, strategy, context_precision, faithfulness, answer_correctness, context_relevancy, overall_score, evaluation_method, ground_truth_provided, evaluation_time, created_at
		FROM evaluations
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	defer rows.Close()

	var records []repository.EvaluationRecord
	for rows.Next() {
		var rec repository.EvaluationRecord
		if err := rows.Scan(
			&rec.ID, &rec.Query, &rec.Response, &rec.Strategy,
			&rec.ContextPrecision, &rec.Faithfulness, &rec.AnswerCorrectness, &rec.ContextRelevancy,
			&rec.OverallScore, &rec.EvaluationMethod, &rec.GroundTruthProvided, &rec.EvaluationTime,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evaluations: %w", err)
	}

	return records, nil
}

// Ensure EvaluationRepo implements EvaluationRepository
var _ repository.EvaluationRepository = (*EvaluationRepo)(nil)
