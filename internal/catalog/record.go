// Package catalog reads small-body catalog exports (SBDB-style CSV) into
// sparse records and decides which rows enter the velocity pipeline.
package catalog

import (
	"math"
	"strconv"
	"strings"
)

// Catalog column names used by the pipeline. Other columns are carried but ignored.
const (
	FieldName     = "name"
	FieldFullName = "full_name"
	FieldPdes     = "pdes"
	FieldNEO      = "neo"
	FieldPHA      = "pha"
	FieldDiameter = "diameter" // km
	FieldA        = "a"        // AU
	FieldE        = "e"
	FieldI        = "i"  // deg
	FieldOM       = "om" // deg
	FieldW        = "w"  // deg
	FieldMA       = "ma" // deg
)

// UnknownName is used when a row carries no usable identifier.
const UnknownName = "unknown"

// Record is one catalog row as a sparse field → value mapping.
// Values are raw text; a field absent from the header is missing, not blank.
type Record struct {
	Row    int // 1-based data row (header excluded)
	fields map[string]string
}

// NewRecord builds a Record from a field map. The map is copied.
func NewRecord(row int, fields map[string]string) Record {
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Record{Row: row, fields: cp}
}

// Get returns the raw value of a field and whether it was present.
func (r Record) Get(field string) (string, bool) {
	v, ok := r.fields[field]
	return v, ok
}

// Value returns the raw value of a field, or "" when missing.
func (r Record) Value(field string) string {
	return r.fields[field]
}

// Fields returns a copy of all fields.
func (r Record) Fields() map[string]string {
	cp := make(map[string]string, len(r.fields))
	for k, v := range r.fields {
		cp[k] = v
	}
	return cp
}

// Float parses a numeric field. Missing or blank values yield 0.
// Anything else that does not parse returns a *ParseError.
func (r Record) Float(field string) (float64, error) {
	raw := strings.TrimSpace(r.fields[field])
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ParseError{Row: r.Row, Name: r.Name(), Field: field, Value: raw, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Row: r.Row, Name: r.Name(), Field: field, Value: raw, Err: strconv.ErrRange}
	}
	return v, nil
}

// Name returns the object's display name: name, then full_name, then the
// primary designation, then UnknownName.
func (r Record) Name() string {
	for _, f := range []string{FieldName, FieldFullName, FieldPdes} {
		if v := strings.TrimSpace(r.fields[f]); v != "" {
			return v
		}
	}
	return UnknownName
}
