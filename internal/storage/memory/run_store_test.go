package memory

import (
	"context"
	"errors"
	"testing"

	"neo-velocity-lab/internal/domain"
	"neo-velocity-lab/internal/storage"
)

func TestRunStore_InsertAndGet(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := &domain.Run{
		RunID:     "run-1",
		InputPath: "raw_data.csv",
		Status:    domain.RunStatusRunning,
		StartedAt: 1000,
	}

	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.InputPath != "raw_data.csv" || got.Status != domain.RunStatusRunning {
		t.Errorf("unexpected run: %+v", got)
	}

	// Returned value is a copy
	got.Status = "MUTATED"
	again, _ := store.GetByID(ctx, "run-1")
	if again.Status != domain.RunStatusRunning {
		t.Errorf("store was mutated through returned pointer")
	}
}

func TestRunStore_DuplicateKey(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := &domain.Run{RunID: "run-1"}
	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.Insert(ctx, run); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestRunStore_InvalidInput(t *testing.T) {
	store := NewRunStore()
	if err := store.Insert(context.Background(), &domain.Run{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestRunStore_Complete(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.Run{RunID: "run-1", Status: domain.RunStatusRunning, StartedAt: 10}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	done := &domain.Run{
		RunID:       "run-1",
		Status:      domain.RunStatusSucceeded,
		RowsRead:    10,
		FilteredOut: 3,
		Processed:   6,
		Skipped:     1,
		FinishedAt:  20,
	}
	if err := store.Complete(ctx, done); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.RunStatusSucceeded || got.Processed != 6 || got.Skipped != 1 || got.FinishedAt != 20 {
		t.Errorf("unexpected run after Complete: %+v", got)
	}
	if got.StartedAt != 10 {
		t.Errorf("StartedAt should be preserved, got %d", got.StartedAt)
	}

	if err := store.Complete(ctx, &domain.Run{RunID: "missing"}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRunStore_List(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		if err := store.Insert(ctx, &domain.Run{RunID: id, StartedAt: int64(i)}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "c" || runs[1].RunID != "b" {
		t.Errorf("unexpected order: %v, %v", runs[0].RunID, runs[1].RunID)
	}
}

func TestRunStore_RetentionKeepsRunningRuns(t *testing.T) {
	ctx := context.Background()
	var evicted []string
	store := NewRunStore().WithRetention(1, func(runID string) {
		evicted = append(evicted, runID)
	})

	// Both runs are still running, so neither can be dropped.
	for _, id := range []string{"run-1", "run-2"} {
		if err := store.Insert(ctx, &domain.Run{RunID: id, Status: domain.RunStatusRunning, StartedAt: 1}); err != nil {
			t.Fatalf("Insert %s failed: %v", id, err)
		}
	}
	if len(evicted) != 0 {
		t.Fatalf("running runs evicted: %v", evicted)
	}

	if err := store.Complete(ctx, &domain.Run{RunID: "run-1", Status: domain.RunStatusSucceeded}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if err := store.Insert(ctx, &domain.Run{RunID: "run-3", Status: domain.RunStatusRunning, StartedAt: 2}); err != nil {
		t.Fatalf("Insert run-3 failed: %v", err)
	}

	if len(evicted) != 1 || evicted[0] != "run-1" {
		t.Fatalf("expected run-1 evicted, got %v", evicted)
	}
	if _, err := store.GetByID(ctx, "run-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("run-1 still present: %v", err)
	}
	if _, err := store.GetByID(ctx, "run-2"); err != nil {
		t.Errorf("running run-2 was dropped: %v", err)
	}
}
