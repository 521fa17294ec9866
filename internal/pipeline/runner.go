// Package pipeline runs a catalog through the filter and the orbit core and
// persists the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/sync/errgroup"

	"neo-velocity-lab/internal/catalog"
	"neo-velocity-lab/internal/domain"
	"neo-velocity-lab/internal/idhash"
	"neo-velocity-lab/internal/normalization"
	"neo-velocity-lab/internal/observability"
	"neo-velocity-lab/internal/reporting"
	"neo-velocity-lab/internal/storage"
)

var log = logging.Logger("pipeline")

// Runner executes batch runs. Configure it with the With* methods before use.
type Runner struct {
	adapter         *normalization.Adapter
	filter          catalog.Filter
	workers         int
	skipUnparseable bool
	runStore        storage.RunStore      // optional
	resultStores    []storage.ResultStore // optional
	clock           func() time.Time
	newRunID        func() string
}

// NewRunner creates a Runner with the default NEO/PHA filter and one worker per CPU.
func NewRunner(adapter *normalization.Adapter) *Runner {
	return &Runner{
		adapter:  adapter,
		filter:   catalog.DefaultFilter,
		workers:  runtime.GOMAXPROCS(0),
		clock:    func() time.Time { return time.Now().UTC() },
		newRunID: uuid.NewString,
	}
}

// WithExprFilter ANDs a CEL row expression onto the default filter.
func (r *Runner) WithExprFilter(f *catalog.ExprFilter) *Runner {
	if f != nil {
		r.filter = catalog.All(catalog.DefaultFilter, f)
	}
	return r
}

// WithWorkers sets the number of concurrent conversions. Values < 1 mean 1.
func (r *Runner) WithWorkers(n int) *Runner {
	if n < 1 {
		n = 1
	}
	r.workers = n
	return r
}

// WithSkipUnparseable makes rows with unparseable numeric fields count as
// skipped instead of aborting the run.
func (r *Runner) WithSkipUnparseable(skip bool) *Runner {
	r.skipUnparseable = skip
	return r
}

// WithRunStore records run lifecycle in s.
func (r *Runner) WithRunStore(s storage.RunStore) *Runner {
	r.runStore = s
	return r
}

// WithResultStore adds a sink for the results of each run.
func (r *Runner) WithResultStore(s storage.ResultStore) *Runner {
	r.resultStores = append(r.resultStores, s)
	return r
}

// WithClock sets a custom clock function for deterministic output.
func (r *Runner) WithClock(clock func() time.Time) *Runner {
	r.clock = clock
	return r
}

// WithRunIDFunc overrides run ID generation.
func (r *Runner) WithRunIDFunc(f func() string) *Runner {
	r.newRunID = f
	return r
}

// Output is the outcome of processing a catalog.
type Output struct {
	Results []domain.VelocityResult // in input order
	Rows    []int                   // catalog row of each result
	Summary Summary
}

// converted is one worker slot.
type converted struct {
	result     domain.VelocityResult
	iterations int
	err        error
}

// Process filters records and converts the survivors. Records are parsed
// sequentially so that the first unparseable row aborts the run (unless
// WithSkipUnparseable is set); the orbit computation runs on the worker pool.
// Domain and convergence failures are collected in the summary, not returned.
func (r *Runner) Process(ctx context.Context, records []catalog.Record) (*Output, error) {
	start := r.clock()
	sum := newSummary()
	sum.RowsRead = len(records)

	type job struct {
		rec catalog.Record
		el  domain.OrbitalElements
	}
	var jobs []job
	var slots []converted

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("process catalog: %w", err)
		}
		observability.RecordRead()

		log.Debugw("record",
			"row", rec.Row,
			"name", rec.Name(),
			"diameter", rec.Value(catalog.FieldDiameter),
			"neo", rec.Value(catalog.FieldNEO),
			"pha", rec.Value(catalog.FieldPHA),
		)

		ok, err := r.filter.Include(rec)
		if err != nil {
			sum.FilteredOut++
			sum.addError(&normalization.RecordError{Row: rec.Row, Name: rec.Name(), Err: err})
			observability.RecordFiltered()
			continue
		}
		if !ok {
			sum.FilteredOut++
			observability.RecordFiltered()
			continue
		}

		el, err := r.adapter.Elements(rec)
		if err != nil {
			recErr := &normalization.RecordError{Row: rec.Row, Name: rec.Name(), Err: err}
			if !r.skipUnparseable {
				return nil, fmt.Errorf("unparseable row: %w", recErr)
			}
			// Keep the slot so errors are reported in row order.
			jobs = append(jobs, job{rec: rec})
			slots = append(slots, converted{err: recErr})
			continue
		}
		jobs = append(jobs, job{rec: rec, el: el})
		slots = append(slots, converted{})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i := range jobs {
		if slots[i].err != nil {
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, sol, err := r.adapter.ConvertElements(jobs[i].el)
			if err != nil {
				slots[i].err = &normalization.RecordError{Row: jobs[i].rec.Row, Name: jobs[i].el.Name, Err: err}
				return nil
			}
			slots[i].result = res
			slots[i].iterations = sol.Iterations
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("process catalog: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("process catalog: %w", err)
	}

	out := &Output{
		Results: make([]domain.VelocityResult, 0, len(slots)),
		Rows:    make([]int, 0, len(slots)),
	}
	for i, s := range slots {
		if s.err != nil {
			sum.Skipped++
			sum.addError(s.err)
			log.Warnw("skipping record", "row", jobs[i].rec.Row, "kind", normalization.Classify(s.err), "err", s.err)
			continue
		}
		out.Results = append(out.Results, s.result)
		out.Rows = append(out.Rows, jobs[i].rec.Row)
		observability.RecordProcessed(s.iterations)
	}

	sum.Processed = len(out.Results)
	sum.sortErrors()
	sum.Duration = r.clock().Sub(start)
	out.Summary = *sum
	return out, nil
}

// RunMeta describes the source and destination of a run.
type RunMeta struct {
	InputPath  string
	OutputPath string

	// WriteOutput, if set, receives the results before the run is marked
	// complete. A failure fails the run.
	WriteOutput func(results []domain.VelocityResult) error
}

// Run reads a CSV catalog from src, processes it and persists the run.
func (r *Runner) Run(ctx context.Context, src io.Reader, meta RunMeta) (out *Output, err error) {
	started := r.clock()
	run := &domain.Run{
		RunID:      r.newRunID(),
		InputPath:  meta.InputPath,
		OutputPath: meta.OutputPath,
		Status:     domain.RunStatusRunning,
		StartedAt:  started.UnixMilli(),
	}
	log.Infow("starting run", "run_id", run.RunID, "input", meta.InputPath, "workers", r.workers, "skip_unparseable", r.skipUnparseable)

	if r.runStore != nil {
		if err := r.runStore.Insert(ctx, run); err != nil {
			return nil, fmt.Errorf("insert run: %w", err)
		}
	}

	defer func() {
		finished := r.clock()
		run.FinishedAt = finished.UnixMilli()
		status := "success"
		run.Status = domain.RunStatusSucceeded
		if err != nil {
			status = "failure"
			run.Status = domain.RunStatusFailed
		}
		observability.RecordPipelineRun(status, finished.Sub(started).Seconds(), finished.Unix())

		if r.runStore != nil {
			// The caller's context may already be cancelled.
			if cerr := r.runStore.Complete(context.WithoutCancel(ctx), run); cerr != nil && err == nil {
				err = fmt.Errorf("complete run: %w", cerr)
			}
		}
	}()

	records, err := catalog.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	out, err = r.Process(ctx, records)
	if err != nil {
		return nil, err
	}
	out.Summary.RunID = run.RunID
	run.RowsRead = out.Summary.RowsRead
	run.FilteredOut = out.Summary.FilteredOut
	run.Processed = out.Summary.Processed
	run.Skipped = out.Summary.Skipped

	if meta.WriteOutput != nil {
		if err := meta.WriteOutput(out.Results); err != nil {
			return nil, err
		}
	}

	if err := r.persist(ctx, run.RunID, out); err != nil {
		return nil, err
	}

	log.Infow("run finished",
		"run_id", run.RunID,
		"read", out.Summary.RowsRead,
		"filtered_out", out.Summary.FilteredOut,
		"processed", out.Summary.Processed,
		"skipped", out.Summary.Skipped,
	)
	return out, nil
}

// RunFile processes the catalog at inputPath and writes the velocity CSV to outputPath.
func (r *Runner) RunFile(ctx context.Context, inputPath, outputPath string) (*Output, error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return r.Run(ctx, f, RunMeta{
		InputPath:  inputPath,
		OutputPath: outputPath,
		WriteOutput: func(results []domain.VelocityResult) error {
			if err := reporting.WriteCSVFile(outputPath, results); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			log.Infow("output written", "path", outputPath, "rows", len(results))
			return nil
		},
	})
}

func (r *Runner) persist(ctx context.Context, runID string, out *Output) error {
	if len(r.resultStores) == 0 || len(out.Results) == 0 {
		return nil
	}

	records := make([]*domain.ResultRecord, len(out.Results))
	for i, res := range out.Results {
		records[i] = &domain.ResultRecord{
			ResultID:       idhash.ComputeResultID(runID, out.Rows[i], res.Name),
			RunID:          runID,
			RowIndex:       out.Rows[i],
			VelocityResult: res,
		}
	}

	var errs []error
	for _, s := range r.resultStores {
		if err := s.InsertBulk(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("store results: %w", err)
	}
	return nil
}
