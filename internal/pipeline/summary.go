package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"neo-velocity-lab/internal/normalization"
	"neo-velocity-lab/internal/observability"
	"neo-velocity-lab/internal/reporting"
)

// maxReportedErrors bounds the error list in rendered reports.
const maxReportedErrors = 20

// Summary holds the counts of one run.
type Summary struct {
	RunID       string
	RowsRead    int
	FilteredOut int // excluded by the filter, including filter errors
	Processed   int
	Skipped     int // parse, domain or convergence failures

	ErrorsByKind map[string]int
	Errors       []*normalization.RecordError // in row order
	Duration     time.Duration
}

func newSummary() *Summary {
	return &Summary{ErrorsByKind: make(map[string]int)}
}

func (s *Summary) addError(err error) {
	var recErr *normalization.RecordError
	if !errors.As(err, &recErr) {
		recErr = &normalization.RecordError{Err: err}
	}
	kind := recErr.Kind()
	s.ErrorsByKind[kind]++
	s.Errors = append(s.Errors, recErr)
	observability.RecordError(kind)
}

func (s *Summary) sortErrors() {
	sort.SliceStable(s.Errors, func(i, j int) bool {
		return s.Errors[i].Row < s.Errors[j].Row
	})
}

// String formats the one-line run summary.
func (s *Summary) String() string {
	return fmt.Sprintf("read %d, filtered out %d, processed %d, skipped %d",
		s.RowsRead, s.FilteredOut, s.Processed, s.Skipped)
}

// Report builds the markdown report model for the run.
func (o *Output) Report(inputPath, outputPath string, generatedAt time.Time) *reporting.Report {
	s := o.Summary
	r := &reporting.Report{
		RunID:        s.RunID,
		InputPath:    inputPath,
		OutputPath:   outputPath,
		GeneratedAt:  generatedAt,
		Duration:     s.Duration,
		RowsRead:     s.RowsRead,
		FilteredOut:  s.FilteredOut,
		Processed:    s.Processed,
		Skipped:      s.Skipped,
		ErrorsByKind: s.ErrorsByKind,
		Speed:        reporting.ComputeSpeedStats(o.Results),
		Hazardous:    reporting.CountHazardous(o.Results),
	}
	for i, e := range s.Errors {
		if i == maxReportedErrors {
			r.Errors = append(r.Errors, fmt.Sprintf("... and %d more", len(s.Errors)-maxReportedErrors))
			break
		}
		r.Errors = append(r.Errors, e.Error())
	}
	return r
}
