// Package postgres persists evaluation history. The database is an
// external collaborator of the query service: it is optional, and nothing
// in the retrieval pipeline depends on it.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a connection pool and bootstraps the evaluations table.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{Pool: pool}
	if err := db.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return db, nil
}

// ensureSchema creates the evaluations table if it does not exist yet.
// A single table keeps migrations out of scope for now.
func (db *DB) ensureSchema(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS evaluations (
			id UUID PRIMARY KEY,
			query TEXT NOT NULL,
			response TEXT NOT NULL,
			strategy TEXT NOT NULL,
			context_precision DOUBLE PRECISION NOT NULL,
			faithfulness DOUBLE PRECISION NOT NULL,
			answer_correctness DOUBLE PRECISION NOT NULL,
			context_relevancy DOUBLE PRECISION NOT NULL,
			overall_score DOUBLE PRECISION NOT NULL,
			evaluation_method TEXT NOT NULL,
			ground_truth_provided BOOLEAN NOT NULL,
			evaluation_time DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS evaluations_created_at_idx ON evaluations (created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure evaluations schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (db *DB) Close() {
	db.Pool.Close()
}
