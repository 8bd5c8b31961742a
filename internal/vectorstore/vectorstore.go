// Package vectorstore provides interfaces and implementations for vector similarity search.
package vectorstore

import (
	"context"
)

// QuestionPoint represents an indexed quiz question with its embedding.
type QuestionPoint struct {
	ID      string
	Vector  []float32
	Payload map[string]string
}

// SearchHit represents a single result from the vector index, sorted
// descending by similarity score.
type SearchHit struct {
	ID      string
	Score   float32
	Payload map[string]string
}

// VectorStore defines the interface for the question index.
type VectorStore interface {
	// EnsureCollection creates the collection if it does not exist yet.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert inserts or updates question points in the index.
	Upsert(ctx context.Context, points []QuestionPoint) error

	// Query performs similarity search and returns hits sorted descending
	// by score. The optional filter restricts results to points whose
	// payload fields exactly match the given values (e.g. topic, difficulty).
	Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]SearchHit, error)
}
