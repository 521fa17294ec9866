package memory

import (
	"context"
	"sort"
	"sync"

	"neo-velocity-lab/internal/domain"
	"neo-velocity-lab/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.ResultRecord // keyed by result_id
	byRun map[string][]string             // run_id -> result_ids
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		data:  make(map[string]*domain.ResultRecord),
		byRun: make(map[string][]string),
	}
}

// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
func (s *ResultStore) InsertBulk(_ context.Context, results []*domain.ResultRecord) error {
	if len(results) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(results))

	// First pass: validate and check for duplicates (existing + intra-batch)
	for _, r := range results {
		if r == nil || r.ResultID == "" || r.RunID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.ResultID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.ResultID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.ResultID] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range results {
		resCopy := *r
		s.data[r.ResultID] = &resCopy
		s.byRun[r.RunID] = append(s.byRun[r.RunID], r.ResultID)
	}

	return nil
}

// DeleteByRunID drops every result of a run and returns how many were removed.
func (s *ResultStore) DeleteByRunID(runID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byRun[runID]
	for _, id := range ids {
		delete(s.data, id)
	}
	delete(s.byRun, runID)
	return len(ids)
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByID(_ context.Context, resultID string) (*domain.ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[resultID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	resCopy := *r
	return &resCopy, nil
}

// GetByRunID retrieves all results of a run, ordered by row_index ASC.
func (s *ResultStore) GetByRunID(_ context.Context, runID string) ([]*domain.ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byRun[runID]
	result := make([]*domain.ResultRecord, 0, len(ids))
	for _, id := range ids {
		resCopy := *s.data[id]
		result = append(result, &resCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RowIndex < result[j].RowIndex
	})

	return result, nil
}

var _ storage.ResultStore = (*ResultStore)(nil)
