package memory

import (
	"context"
	"sort"
	"sync"

	"neo-velocity-lab/internal/domain"
	"neo-velocity-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Run

	maxRuns int                // 0 keeps every run
	onEvict func(runID string) // optional
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.Run),
	}
}

// WithRetention keeps at most maxRuns runs. When an insert goes over the
// limit the oldest finished runs are dropped and onEvict is called with each
// dropped run ID. Running runs are never evicted.
func (s *RunStore) WithRetention(maxRuns int, onEvict func(runID string)) *RunStore {
	s.maxRuns = maxRuns
	s.onEvict = onEvict
	return s
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(_ context.Context, r *domain.Run) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	runCopy := *r
	s.data[r.RunID] = &runCopy
	s.evictLocked()
	return nil
}

func (s *RunStore) evictLocked() {
	if s.maxRuns <= 0 || len(s.data) <= s.maxRuns {
		return
	}

	finished := make([]*domain.Run, 0, len(s.data))
	for _, r := range s.data {
		if r.Status != domain.RunStatusRunning {
			finished = append(finished, r)
		}
	}
	sort.Slice(finished, func(i, j int) bool {
		if finished[i].StartedAt != finished[j].StartedAt {
			return finished[i].StartedAt < finished[j].StartedAt
		}
		return finished[i].RunID < finished[j].RunID
	})

	for _, r := range finished {
		if len(s.data) <= s.maxRuns {
			break
		}
		delete(s.data, r.RunID)
		if s.onEvict != nil {
			s.onEvict(r.RunID)
		}
	}
}

// Complete stores the final state of a run. Returns ErrNotFound if not exists.
func (s *RunStore) Complete(_ context.Context, r *domain.Run) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.data[r.RunID]
	if !exists {
		return storage.ErrNotFound
	}

	existing.Status = r.Status
	existing.RowsRead = r.RowsRead
	existing.FilteredOut = r.FilteredOut
	existing.Processed = r.Processed
	existing.Skipped = r.Skipped
	existing.FinishedAt = r.FinishedAt
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	runCopy := *r
	return &runCopy, nil
}

// List retrieves the most recent runs, ordered by started_at DESC.
func (s *RunStore) List(_ context.Context, limit int) ([]*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Run, 0, len(s.data))
	for _, r := range s.data {
		runCopy := *r
		result = append(result, &runCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].StartedAt != result[j].StartedAt {
			return result[i].StartedAt > result[j].StartedAt
		}
		return result[i].RunID < result[j].RunID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ storage.RunStore = (*RunStore)(nil)
