package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"neo-velocity-lab/internal/domain"
	"neo-velocity-lab/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

const resultColumns = `result_id, run_id, row_index, name, vel_x, vel_y, vel_z, mass, is_hazardous`

// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
func (s *ResultStore) InsertBulk(ctx context.Context, results []*domain.ResultRecord) (err error) {
	if len(results) == 0 {
		return nil
	}
	for _, r := range results {
		if r == nil || r.ResultID == "" || r.RunID == "" {
			return storage.ErrInvalidInput
		}
	}
	defer observeQuery("result_insert_bulk", time.Now(), &err)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range results {
		batch.Queue(`
			INSERT INTO velocity_results (`+resultColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			r.ResultID,
			r.RunID,
			r.RowIndex,
			r.Name,
			r.Velocity[0],
			r.Velocity[1],
			r.Velocity[2],
			r.Mass,
			r.IsHazardous,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range results {
		if _, err := br.Exec(); err != nil {
			br.Close()
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert result in bulk: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByID(ctx context.Context, resultID string) (*domain.ResultRecord, error) {
	query := `SELECT ` + resultColumns + ` FROM velocity_results WHERE result_id = $1`

	r, err := scanResult(s.pool.QueryRow(ctx, query, resultID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get result by id: %w", err)
	}
	return r, nil
}

// GetByRunID retrieves all results of a run, ordered by row_index ASC.
func (s *ResultStore) GetByRunID(ctx context.Context, runID string) ([]*domain.ResultRecord, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM velocity_results
		WHERE run_id = $1
		ORDER BY row_index ASC, result_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get results by run: %w", err)
	}
	defer rows.Close()

	results := []*domain.ResultRecord{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

// scanResult scans a single row into a ResultRecord.
func scanResult(row pgx.Row) (*domain.ResultRecord, error) {
	var r domain.ResultRecord
	err := row.Scan(
		&r.ResultID,
		&r.RunID,
		&r.RowIndex,
		&r.Name,
		&r.Velocity[0],
		&r.Velocity[1],
		&r.Velocity[2],
		&r.Mass,
		&r.IsHazardous,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
