package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/facebookgo/atomicfile"

	"neo-velocity-lab/internal/domain"
)

// CSVHeader is the header row of the velocity output file.
var CSVHeader = []string{"Name", "VelX", "VelY", "VelZ", "pha", "mass"}

// WriteCSV writes results as CSV, one row per result in slice order.
func WriteCSV(w io.Writer, results []domain.VelocityResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range results {
		if err := cw.Write(csvRow(&results[i])); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteCSVFile writes results to path. The file is replaced atomically,
// so readers never observe a partially written output.
func WriteCSVFile(path string, results []domain.VelocityResult) error {
	f, err := atomicfile.New(path, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := WriteCSV(f, results); err != nil {
		f.Abort()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("commit %s: %w", path, err)
	}
	return nil
}

func csvRow(r *domain.VelocityResult) []string {
	return []string{
		r.Name,
		formatFloat(r.Velocity[0]),
		formatFloat(r.Velocity[1]),
		formatFloat(r.Velocity[2]),
		formatBool(r.IsHazardous),
		formatFloat(r.Mass),
	}
}

// formatFloat uses the shortest representation that round-trips.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// WriteFile atomically replaces path with content.
func WriteFile(path, content string) error {
	f, err := atomicfile.New(path, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.WriteString(f, content); err != nil {
		f.Abort()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("commit %s: %w", path, err)
	}
	return nil
}
