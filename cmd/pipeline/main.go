// Package main provides the batch entry point.
// Executes: read catalog → filter → Kepler/velocity/mass → write CSV
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"neo-velocity-lab/internal/catalog"
	"neo-velocity-lab/internal/config"
	"neo-velocity-lab/internal/normalization"
	"neo-velocity-lab/internal/pipeline"
	"neo-velocity-lab/internal/reporting"
	"neo-velocity-lab/internal/storage/stores"
)

var log = logging.Logger("cmd/pipeline")

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML config file (defaults apply when empty)")
	input := flag.String("input", "", "Input catalog CSV (default ./raw_data.csv)")
	output := flag.String("output", "", "Output velocity CSV (default ./output_data.csv)")
	summary := flag.String("summary", "", "Write a markdown run summary to this path")
	filter := flag.String("filter", "", "CEL expression over row fields, ANDed with the NEO/PHA filter")
	workers := flag.Int("workers", 0, "Concurrent conversions (default GOMAXPROCS)")
	skipUnparseable := flag.Bool("skip-unparseable", false, "Skip rows with unparseable numeric fields instead of aborting")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (optional)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional)")
	verbose := flag.Bool("verbose", false, "Log every record")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [input.csv [output.csv]]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	setupLogging(*verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Explicit flags override the config file; positional args override flags.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Pipeline.Input = *input
		case "output":
			cfg.Pipeline.Output = *output
		case "summary":
			cfg.Pipeline.Summary = *summary
		case "filter":
			cfg.Pipeline.Filter = *filter
		case "workers":
			cfg.Pipeline.Workers = *workers
		case "skip-unparseable":
			cfg.Pipeline.SkipUnparseable = *skipUnparseable
		}
	})
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = *clickhouseDSN
	}
	switch args := flag.Args(); len(args) {
	case 0:
	case 1:
		cfg.Pipeline.Input = args[0]
	case 2:
		cfg.Pipeline.Input, cfg.Pipeline.Output = args[0], args[1]
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create context with cancellation for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	st, cleanup, err := stores.Open(ctx, stores.Options{
		PostgresDSN:   cfg.Storage.PostgresDSN,
		ClickhouseDSN: cfg.Storage.ClickhouseDSN,
	})
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer cleanup()

	adapter := normalization.NewAdapter(cfg.Calculator(), cfg.Mass.Density)
	runner := pipeline.NewRunner(adapter).
		WithWorkers(cfg.Pipeline.Workers).
		WithSkipUnparseable(cfg.Pipeline.SkipUnparseable).
		WithRunStore(st.Runs)
	for _, sink := range st.Sinks {
		runner.WithResultStore(sink)
	}

	if cfg.Pipeline.Filter != "" {
		f, err := catalog.NewExprFilter(cfg.Pipeline.Filter)
		if err != nil {
			return fmt.Errorf("filter: %w", err)
		}
		runner.WithExprFilter(f)
	}

	fmt.Println("=== NEO Velocity Pipeline ===")
	fmt.Printf("Input:  %s\n", cfg.Pipeline.Input)
	fmt.Printf("Output: %s\n", cfg.Pipeline.Output)

	out, err := runner.RunFile(ctx, cfg.Pipeline.Input, cfg.Pipeline.Output)
	if err != nil {
		return err
	}

	s := out.Summary
	report := out.Report(cfg.Pipeline.Input, cfg.Pipeline.Output, time.Now().UTC())

	fmt.Printf("\nRun %s completed in %s:\n", s.RunID, s.Duration.Round(time.Millisecond))
	fmt.Printf("  Read:         %d\n", s.RowsRead)
	fmt.Printf("  Filtered out: %d\n", s.FilteredOut)
	fmt.Printf("  Processed:    %d\n", s.Processed)
	fmt.Printf("  Skipped:      %d\n", s.Skipped)
	if kinds := report.SortedErrorKinds(); len(kinds) > 0 {
		fmt.Printf("  Errors:\n")
		for _, k := range kinds {
			fmt.Printf("    - %s: %d\n", k.Kind, k.Count)
		}
	}
	fmt.Printf("\nOutput written to %s\n", cfg.Pipeline.Output)

	if cfg.Pipeline.Summary != "" {
		if err := reporting.WriteFile(cfg.Pipeline.Summary, reporting.RenderMarkdown(report)); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		fmt.Printf("Summary written to %s\n", cfg.Pipeline.Summary)
	}

	return nil
}

func setupLogging(verbose bool) {
	if os.Getenv("GOLOG_LOG_LEVEL") == "" {
		logging.SetAllLoggers(logging.LevelWarn)
		_ = logging.SetLogLevel("pipeline", "info")
	}
	if verbose {
		logging.SetAllLoggers(logging.LevelDebug)
	}
	log.Debugw("logging configured", "verbose", verbose)
}
