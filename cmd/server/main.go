// Package main provides the HTTP service:
// - POST /api/v1/velocity and GET /ws/velocity: single element sets
// - POST /api/v1/catalog: batch runs over an uploaded CSV
// - GET /api/v1/runs/...: persisted runs and results
// - GET /health, GET /metrics
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"neo-velocity-lab/internal/api"
	"neo-velocity-lab/internal/config"
	"neo-velocity-lab/internal/normalization"
	"neo-velocity-lab/internal/pipeline"
	"neo-velocity-lab/internal/storage/stores"
)

var log = logging.Logger("cmd/server")

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	configPath := flag.String("config", os.Getenv("NEO_CONFIG"), "YAML config file (defaults apply when empty)")
	addr := flag.String("addr", "", "HTTP listen address (default from config, :8080)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (memory when empty)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional)")
	workers := flag.Int("workers", 0, "Concurrent conversions per catalog run (default from config)")
	verbose := flag.Bool("verbose", false, "Debug logging")
	flag.Parse()

	if os.Getenv("GOLOG_LOG_LEVEL") == "" {
		logging.SetAllLoggers(logging.LevelInfo)
	}
	if *verbose {
		logging.SetAllLoggers(logging.LevelDebug)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = *clickhouseDSN
	}
	if *workers > 0 {
		cfg.Pipeline.Workers = *workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, cleanup, err := stores.Open(ctx, stores.Options{
		PostgresDSN:     cfg.Storage.PostgresDSN,
		ClickhouseDSN:   cfg.Storage.ClickhouseDSN,
		MemoryRetention: cfg.Server.MemoryRetention,
	})
	if err != nil {
		log.Fatalf("open stores: %v", err)
	}
	defer cleanup()

	adapter := normalization.NewAdapter(cfg.Calculator(), cfg.Mass.Density)
	newRunner := func() *pipeline.Runner {
		r := pipeline.NewRunner(adapter).
			WithWorkers(cfg.Pipeline.Workers).
			WithRunStore(st.Runs)
		for _, sink := range st.Sinks {
			r.WithResultStore(sink)
		}
		return r
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServer(adapter, newRunner, st),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", cfg.Server.Addr, "backend", st.Backend, "sinks", len(st.Sinks))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("http server: %v", err)
			cleanup()
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Infow("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnw("graceful shutdown failed", "err", err)
		}
	}

	log.Infow("shutdown complete")
}

// loadEnvFile sets variables from ./.env without overriding the environment.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
