package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const utf8BOM = "\ufeff"

// Reader streams Records from a CSV catalog with a header row.
type Reader struct {
	csv    *csv.Reader
	header []string
	row    int
}

// NewReader reads the header row and returns a Reader positioned at the first data row.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input, no header row", ErrRead)
		}
		return nil, fmt.Errorf("%w: header: %w", ErrRead, err)
	}

	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		header[i] = strings.TrimSpace(h)
	}

	return &Reader{csv: cr, header: header}, nil
}

// Header returns the column names.
func (r *Reader) Header() []string {
	return append([]string(nil), r.header...)
}

// Next returns the next Record, or io.EOF when the input is exhausted.
// Short rows leave trailing fields missing; extra cells are dropped.
func (r *Reader) Next() (Record, error) {
	values, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("%w: row %d: %w", ErrRead, r.row+1, err)
	}
	r.row++

	n := len(values)
	if n > len(r.header) {
		n = len(r.header)
	}
	fields := make(map[string]string, n)
	for i := 0; i < n; i++ {
		fields[r.header[i]] = values[i]
	}

	return Record{Row: r.row, fields: fields}, nil
}

// ReadAll reads every remaining Record.
func ReadAll(r io.Reader) ([]Record, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, err
	}

	var records []Record
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// ReadFile opens path and reads the whole catalog.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	records, err := ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return records, nil
}
