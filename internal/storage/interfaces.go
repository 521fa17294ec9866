package storage

import (
	"context"

	"neo-velocity-lab/internal/domain"
)

// RunStore provides access to pipeline_runs storage.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.Run) error

	// Complete stores the final status, counts and finish time of a run.
	// Returns ErrNotFound if the run does not exist.
	Complete(ctx context.Context, r *domain.Run) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.Run, error)

	// List retrieves the most recent runs, ordered by started_at DESC.
	List(ctx context.Context, limit int) ([]*domain.Run, error)
}

// ResultStore provides access to velocity_results storage.
type ResultStore interface {
	// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate result_id.
	InsertBulk(ctx context.Context, results []*domain.ResultRecord) error

	// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, resultID string) (*domain.ResultRecord, error)

	// GetByRunID retrieves all results of a run, ordered by row_index ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.ResultRecord, error)
}
