package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-velocity-lab/internal/catalog"
	"neo-velocity-lab/internal/domain"
	"neo-velocity-lab/internal/idhash"
	"neo-velocity-lab/internal/normalization"
	"neo-velocity-lab/internal/orbit"
	"neo-velocity-lab/internal/storage/memory"
)

const testCSV = "name,full_name,pdes,neo,pha,diameter,a,e,i,om,w,ma\n" +
	"Circle,,,Y,N,1,1,0,0,0,0,0\n" +
	"Plain,,,N,N,1,1,0,0,0,0,0\n" +
	"Hazard,,,N,Y,0.5,2,0.3,10,20,30,40\n" +
	"BadA,,,Y,N,1,abc,0,0,0,0,0\n" +
	"Hyper,,,Y,Y,1,1,1.2,0,0,0,0\n" +
	",\"  (2000 XY)  \",,Y,N,,1,0.1,5,5,5,5\n"

var fixedTime = time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC)

func newTestRunner() *Runner {
	adapter := normalization.NewAdapter(orbit.NewCalculator(orbit.SunConstants()), orbit.ReferenceDensity)
	return NewRunner(adapter).
		WithWorkers(4).
		WithClock(func() time.Time { return fixedTime }).
		WithRunIDFunc(func() string { return "run-test" })
}

// newSkippingRunner counts unparseable rows instead of aborting.
func newSkippingRunner() *Runner {
	return newTestRunner().WithSkipUnparseable(true)
}

func readRecords(t *testing.T, data string) []catalog.Record {
	t.Helper()
	records, err := catalog.ReadAll(strings.NewReader(data))
	require.NoError(t, err)
	return records
}

func TestProcess_Counts(t *testing.T) {
	out, err := newSkippingRunner().Process(context.Background(), readRecords(t, testCSV))
	require.NoError(t, err)

	s := out.Summary
	assert.Equal(t, 6, s.RowsRead)
	assert.Equal(t, 1, s.FilteredOut)
	assert.Equal(t, 3, s.Processed)
	assert.Equal(t, 2, s.Skipped)
	assert.Equal(t, 1, s.ErrorsByKind[normalization.ErrorKindParse])
	assert.Equal(t, 1, s.ErrorsByKind[normalization.ErrorKindDomain])
	assert.Equal(t, "read 6, filtered out 1, processed 3, skipped 2", s.String())

	require.Len(t, s.Errors, 2)
	assert.Equal(t, 4, s.Errors[0].Row)
	assert.True(t, errors.Is(s.Errors[0], catalog.ErrParse))
	assert.Equal(t, 5, s.Errors[1].Row)
	assert.True(t, errors.Is(s.Errors[1], orbit.ErrDomain))
}

func TestProcess_OrderAndValues(t *testing.T) {
	out, err := newSkippingRunner().Process(context.Background(), readRecords(t, testCSV))
	require.NoError(t, err)

	require.Len(t, out.Results, 3)
	assert.Equal(t, []int{1, 3, 6}, out.Rows)

	names := []string{out.Results[0].Name, out.Results[1].Name, out.Results[2].Name}
	assert.Equal(t, []string{"Circle", "Hazard", "(2000 XY)"}, names)

	circle := out.Results[0]
	want := math.Sqrt(orbit.SunConstants().Mu() / orbit.AstronomicalUnit)
	assert.InDelta(t, want, circle.Velocity.X(), 1e-6)
	assert.InDelta(t, 0, circle.Velocity.Y(), 1e-9)
	assert.InDelta(t, 0, circle.Velocity.Z(), 1e-9)
	assert.InDelta(t, 2500*4.0/3.0*math.Pi*math.Pow(500, 3), circle.Mass, 1)
	assert.False(t, circle.IsHazardous)

	assert.True(t, out.Results[1].IsHazardous)
	assert.Zero(t, out.Results[2].Mass, "blank diameter gives zero mass")
}

func TestProcess_OrderIndependentOfWorkers(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("name,neo,pha,diameter,a,e,i,om,w,ma\n")
	for k := 0; k < 200; k++ {
		fmt.Fprintf(&sb, "obj-%d,Y,N,%d,%g,%g,%d,%d,%d,%d\n",
			k, k%7, 0.8+float64(k%13)*0.2, float64(k%9)*0.1, k%30, (k*7)%360, (k*11)%360, (k*13)%360)
	}
	records := readRecords(t, sb.String())

	serial, err := newTestRunner().WithWorkers(1).Process(context.Background(), records)
	require.NoError(t, err)
	parallel, err := newTestRunner().WithWorkers(16).Process(context.Background(), records)
	require.NoError(t, err)

	require.Len(t, serial.Results, 200)
	assert.Equal(t, serial.Results, parallel.Results)
	assert.Equal(t, serial.Rows, parallel.Rows)
}

func TestProcess_FilterFlags(t *testing.T) {
	flags := []string{"Y", "N", "", "maybe"}
	var sb strings.Builder
	sb.WriteString("name,neo,pha,a,e\n")
	expected := 0
	for _, neo := range flags {
		for _, pha := range flags {
			fmt.Fprintf(&sb, "x,%s,%s,1,0\n", neo, pha)
			if neo != "N" || pha != "N" {
				expected++
			}
		}
	}

	out, err := newTestRunner().Process(context.Background(), readRecords(t, sb.String()))
	require.NoError(t, err)
	assert.Equal(t, expected, out.Summary.Processed)
	assert.Equal(t, 1, out.Summary.FilteredOut)
	assert.Len(t, out.Results, expected)
}

func TestProcess_UnparseableRowAborts(t *testing.T) {
	_, err := newTestRunner().Process(context.Background(), readRecords(t, testCSV))
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrParse))

	var recErr *normalization.RecordError
	require.True(t, errors.As(err, &recErr))
	assert.Equal(t, 4, recErr.Row)
	assert.Equal(t, "BadA", recErr.Name)

	var parseErr *catalog.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, catalog.FieldA, parseErr.Field)
	assert.Equal(t, "abc", parseErr.Value)
}

func TestProcess_DomainErrorsDoNotAbort(t *testing.T) {
	data := "name,neo,pha,a,e\n" +
		"Ok,Y,N,1,0\n" +
		"Hyper,Y,N,1,1.2\n" +
		"Negative,Y,N,-1,0\n"

	out, err := newTestRunner().Process(context.Background(), readRecords(t, data))
	require.NoError(t, err)
	assert.Equal(t, 1, out.Summary.Processed)
	assert.Equal(t, 2, out.Summary.Skipped)
	assert.Equal(t, 2, out.Summary.ErrorsByKind[normalization.ErrorKindDomain])
}

func TestProcess_ExprFilter(t *testing.T) {
	f, err := catalog.NewExprFilter(`double(row.a) > 0.5`)
	require.NoError(t, err)

	out, err := newTestRunner().WithExprFilter(f).Process(context.Background(), readRecords(t, testCSV))
	require.NoError(t, err)

	s := out.Summary
	assert.Equal(t, 3, s.Processed)
	assert.Equal(t, 2, s.FilteredOut, "Plain by default filter, BadA by expression error")
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.ErrorsByKind[normalization.ErrorKindFilter])
	assert.Equal(t, 1, s.ErrorsByKind[normalization.ErrorKindDomain])
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRunner().Process(ctx, readRecords(t, testCSV))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_PersistsRunAndResults(t *testing.T) {
	runs := memory.NewRunStore()
	results := memory.NewResultStore()
	ctx := context.Background()

	var written []domain.VelocityResult
	out, err := newSkippingRunner().
		WithRunStore(runs).
		WithResultStore(results).
		Run(ctx, strings.NewReader(testCSV), RunMeta{
			InputPath:  "raw_data.csv",
			OutputPath: "output_data.csv",
			WriteOutput: func(r []domain.VelocityResult) error {
				written = r
				return nil
			},
		})
	require.NoError(t, err)
	assert.Equal(t, "run-test", out.Summary.RunID)
	assert.Equal(t, out.Results, written)

	run, err := runs.GetByID(ctx, "run-test")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusSucceeded, run.Status)
	assert.Equal(t, 6, run.RowsRead)
	assert.Equal(t, 3, run.Processed)
	assert.Equal(t, 2, run.Skipped)
	assert.Equal(t, fixedTime.UnixMilli(), run.FinishedAt)

	stored, err := results.GetByRunID(ctx, "run-test")
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, idhash.ComputeResultID("run-test", 3, "Hazard"), stored[1].ResultID)
	assert.Equal(t, out.Results[1], stored[1].VelocityResult)
}

func TestRun_FailedOutputMarksRunFailed(t *testing.T) {
	runs := memory.NewRunStore()
	ctx := context.Background()

	_, err := newSkippingRunner().
		WithRunStore(runs).
		Run(ctx, strings.NewReader(testCSV), RunMeta{
			WriteOutput: func([]domain.VelocityResult) error { return errors.New("disk full") },
		})
	require.Error(t, err)

	run, err := runs.GetByID(ctx, "run-test")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, run.Status)
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "raw_data.csv")
	output := filepath.Join(dir, "output_data.csv")
	require.NoError(t, os.WriteFile(input, []byte(testCSV), 0o644))

	out, err := newSkippingRunner().RunFile(context.Background(), input, output)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Summary.Processed)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Name,VelX,VelY,VelZ,pha,mass", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Circle,"))
	assert.True(t, strings.HasPrefix(lines[2], "Hazard,"))
	assert.True(t, strings.Contains(lines[2], ",True,"))
}

func TestRunFile_UnparseableRowFailsRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "raw_data.csv")
	output := filepath.Join(dir, "output_data.csv")
	require.NoError(t, os.WriteFile(input, []byte(testCSV), 0o644))

	runs := memory.NewRunStore()
	_, err := newTestRunner().WithRunStore(runs).RunFile(context.Background(), input, output)
	require.ErrorIs(t, err, catalog.ErrParse)
	assert.Contains(t, err.Error(), "row 4")

	_, statErr := os.Stat(output)
	assert.ErrorIs(t, statErr, os.ErrNotExist, "no output on an aborted run")

	run, err := runs.GetByID(context.Background(), "run-test")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, run.Status)
}

func TestRunFile_MissingInput(t *testing.T) {
	_, err := newTestRunner().RunFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), "out.csv")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOutput_Report(t *testing.T) {
	out, err := newSkippingRunner().Process(context.Background(), readRecords(t, testCSV))
	require.NoError(t, err)

	r := out.Report("in.csv", "out.csv", fixedTime)
	assert.Equal(t, 3, r.Processed)
	assert.Equal(t, 1, r.Hazardous)
	require.NotNil(t, r.Speed)
	assert.Len(t, r.Errors, 2)
	assert.Contains(t, r.Errors[0], "row 4")
}
