package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrParse matches every *ParseError.
	ErrParse = errors.New("catalog: unparseable field")

	// ErrRead is returned when the input is not a readable CSV catalog.
	ErrRead = errors.New("catalog: malformed input")

	// ErrFilter is returned when a filter expression cannot be evaluated on a row.
	ErrFilter = errors.New("catalog: filter evaluation failed")
)

// ParseError reports a numeric field that could not be parsed.
type ParseError struct {
	Row   int
	Name  string
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("catalog: row %d (%s): field %q: cannot parse %q as a number: %v",
		e.Row, e.Name, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
