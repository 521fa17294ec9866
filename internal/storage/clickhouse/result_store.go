package clickhouse

import (
	"context"
	"fmt"
	"time"

	"neo-velocity-lab/internal/domain"
	"neo-velocity-lab/internal/observability"
	"neo-velocity-lab/internal/storage"
)

// ResultStore implements storage.ResultStore using ClickHouse.
// MergeTree does not enforce uniqueness, so duplicates are checked before insert.
type ResultStore struct {
	conn *Conn
}

// NewResultStore creates a new ResultStore.
func NewResultStore(conn *Conn) *ResultStore {
	return &ResultStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

const resultColumns = `result_id, run_id, row_index, name, vel_x, vel_y, vel_z, mass, is_hazardous`

// InsertBulk adds multiple results in one batch. Fails entire batch on any duplicate.
func (s *ResultStore) InsertBulk(ctx context.Context, results []*domain.ResultRecord) (err error) {
	if len(results) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "result_insert_bulk", time.Since(start).Seconds(), err)
	}()

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(results))
	ids := make([]string, 0, len(results))
	for _, r := range results {
		if r == nil || r.ResultID == "" || r.RunID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[r.ResultID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.ResultID] = struct{}{}
		ids = append(ids, r.ResultID)
	}

	// Check for duplicates against existing rows
	var count uint64
	err = s.conn.QueryRow(ctx, `SELECT count(*) FROM velocity_results WHERE has(?, result_id)`, ids).Scan(&count)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO velocity_results (`+resultColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range results {
		err = batch.Append(
			r.ResultID,
			r.RunID,
			int64(r.RowIndex),
			r.Name,
			r.Velocity[0],
			r.Velocity[1],
			r.Velocity[2],
			r.Mass,
			r.IsHazardous,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByID(ctx context.Context, resultID string) (*domain.ResultRecord, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM velocity_results FINAL
		WHERE result_id = ?
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query, resultID)
	if err != nil {
		return nil, fmt.Errorf("get result by id: %w", err)
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, storage.ErrNotFound
	}
	return results[0], nil
}

// GetByRunID retrieves all results of a run, ordered by row_index ASC.
func (s *ResultStore) GetByRunID(ctx context.Context, runID string) ([]*domain.ResultRecord, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM velocity_results FINAL
		WHERE run_id = ?
		ORDER BY row_index ASC, result_id ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanResults scans multiple rows into a slice.
func scanResults(rows chRows) ([]*domain.ResultRecord, error) {
	results := []*domain.ResultRecord{}

	for rows.Next() {
		var (
			r        domain.ResultRecord
			rowIndex int64
		)
		err := rows.Scan(
			&r.ResultID,
			&r.RunID,
			&rowIndex,
			&r.Name,
			&r.Velocity[0],
			&r.Velocity[1],
			&r.Velocity[2],
			&r.Mass,
			&r.IsHazardous,
		)
		if err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		r.RowIndex = int(rowIndex)
		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}

	return results, nil
}
