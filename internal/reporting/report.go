package reporting

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"neo-velocity-lab/internal/domain"
)

// Report is the end-of-run summary of a batch computation.
type Report struct {
	RunID       string
	InputPath   string
	OutputPath  string
	GeneratedAt time.Time
	Duration    time.Duration

	RowsRead    int
	FilteredOut int
	Processed   int
	Skipped     int

	ErrorsByKind map[string]int
	Errors       []string // first errors, in row order

	Speed     *SpeedStats // nil when nothing was processed
	Hazardous int
}

// SpeedStats summarizes the velocity magnitudes of processed objects (m/s).
type SpeedStats struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// ErrorKind is one row of the error breakdown.
type ErrorKind struct {
	Kind  string
	Count int
}

// ComputeSpeedStats returns magnitude statistics for results, or nil if empty.
func ComputeSpeedStats(results []domain.VelocityResult) *SpeedStats {
	if len(results) == 0 {
		return nil
	}

	speeds := make([]float64, len(results))
	for i := range results {
		speeds[i] = results[i].Velocity.Norm()
	}

	mean, std := stat.MeanStdDev(speeds, nil)
	if len(speeds) == 1 {
		std = 0
	}
	return &SpeedStats{
		Min:    floats.Min(speeds),
		Max:    floats.Max(speeds),
		Mean:   mean,
		StdDev: std,
	}
}

// CountHazardous returns the number of results flagged as PHA.
func CountHazardous(results []domain.VelocityResult) int {
	n := 0
	for i := range results {
		if results[i].IsHazardous {
			n++
		}
	}
	return n
}

// SortedErrorKinds returns the error breakdown ordered by count DESC, kind ASC.
func (r *Report) SortedErrorKinds() []ErrorKind {
	kinds := make([]ErrorKind, 0, len(r.ErrorsByKind))
	for k, n := range r.ErrorsByKind {
		if n > 0 {
			kinds = append(kinds, ErrorKind{Kind: k, Count: n})
		}
	}
	sort.Slice(kinds, func(i, j int) bool {
		if kinds[i].Count != kinds[j].Count {
			return kinds[i].Count > kinds[j].Count
		}
		return kinds[i].Kind < kinds[j].Kind
	})
	return kinds
}
