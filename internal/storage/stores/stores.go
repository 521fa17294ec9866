// Package stores opens the configured storage backends.
package stores

import (
	"context"
	"fmt"

	logging "github.com/ipfs/go-log/v2"

	"neo-velocity-lab/internal/storage"
	chstore "neo-velocity-lab/internal/storage/clickhouse"
	"neo-velocity-lab/internal/storage/memory"
	"neo-velocity-lab/internal/storage/migrations"
	pgstore "neo-velocity-lab/internal/storage/postgres"
)

var log = logging.Logger("stores")

// Stores holds the run store and the result sinks of a process.
type Stores struct {
	Runs storage.RunStore

	// Results serves reads. It is PostgreSQL when configured, memory otherwise.
	Results storage.ResultStore

	// Sinks receive every run's results. Results is always the first sink.
	Sinks []storage.ResultStore

	Backend string // "postgres" or "memory"
}

// Options selects the storage backends.
type Options struct {
	PostgresDSN   string
	ClickhouseDSN string

	// MemoryRetention caps the runs kept by the memory backend. Results of
	// evicted runs are dropped with them. 0 keeps everything.
	MemoryRetention int
}

// Memory returns unbounded in-memory stores.
func Memory() *Stores {
	return MemoryWithRetention(0)
}

// MemoryWithRetention returns in-memory stores that keep at most maxRuns
// finished runs and their results.
func MemoryWithRetention(maxRuns int) *Stores {
	results := memory.NewResultStore()
	runs := memory.NewRunStore().WithRetention(maxRuns, func(runID string) {
		n := results.DeleteByRunID(runID)
		log.Debugw("evicted run", "run_id", runID, "results", n)
	})
	return &Stores{
		Runs:    runs,
		Results: results,
		Sinks:   []storage.ResultStore{results},
		Backend: "memory",
	}
}

// Open connects to PostgreSQL and ClickHouse when their DSNs are set, applying
// migrations, and falls back to memory otherwise. The returned cleanup
// function closes all connections.
func Open(ctx context.Context, opts Options) (*Stores, func(), error) {
	s := MemoryWithRetention(opts.MemoryRetention)
	postgresDSN, clickhouseDSN := opts.PostgresDSN, opts.ClickhouseDSN
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}

		results := pgstore.NewResultStore(pool)
		s.Runs = pgstore.NewRunStore(pool)
		s.Results = results
		s.Sinks = []storage.ResultStore{results}
		s.Backend = "postgres"
		log.Infow("using postgres stores")
	}

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		closers = append(closers, func() { conn.Close() })

		s.Sinks = append(s.Sinks, chstore.NewResultStore(conn))
		log.Infow("using clickhouse result sink")
	}

	return s, cleanup, nil
}
