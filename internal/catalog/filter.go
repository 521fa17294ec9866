package catalog

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Filter decides whether a Record enters the pipeline.
type Filter interface {
	Include(rec Record) (bool, error)
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(rec Record) (bool, error)

// Include calls f.
func (f FilterFunc) Include(rec Record) (bool, error) {
	return f(rec)
}

// IsNEOOrPHA keeps every row except those flagged exactly "N" for both neo and pha.
// Missing or malformed flags therefore pass.
func IsNEOOrPHA(rec Record) bool {
	return rec.Value(FieldNEO) != "N" || rec.Value(FieldPHA) != "N"
}

// DefaultFilter applies IsNEOOrPHA.
var DefaultFilter Filter = FilterFunc(func(rec Record) (bool, error) {
	return IsNEOOrPHA(rec), nil
})

// All includes a row only if every filter includes it. Evaluation stops at the
// first exclusion or error.
func All(filters ...Filter) Filter {
	return FilterFunc(func(rec Record) (bool, error) {
		for _, f := range filters {
			ok, err := f.Include(rec)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	})
}

// exprCostLimit bounds evaluation cost of a single filter expression.
const exprCostLimit = 1000000

// ExprFilter evaluates a CEL expression against the raw row, exposed as
// `row` (map(string, string)). Example: `row.pha == "Y" && double(row.diameter) > 1.0`.
type ExprFilter struct {
	expr string
	prog cel.Program
}

// NewExprFilter compiles expr. The expression must evaluate to bool.
func NewExprFilter(expr string) (*ExprFilter, error) {
	env, err := cel.NewEnv(
		cel.Variable("row", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	prog, err := env.Program(ast, cel.CostLimit(exprCostLimit))
	if err != nil {
		return nil, fmt.Errorf("build filter program: %w", err)
	}

	return &ExprFilter{expr: expr, prog: prog}, nil
}

// Expr returns the source expression.
func (f *ExprFilter) Expr() string {
	return f.expr
}

// Include evaluates the expression. Errors (missing keys, bad conversions)
// are wrapped in ErrFilter.
func (f *ExprFilter) Include(rec Record) (bool, error) {
	out, _, err := f.prog.Eval(map[string]any{"row": rec.Fields()})
	if err != nil {
		return false, fmt.Errorf("%w: row %d (%s): %v", ErrFilter, rec.Row, rec.Name(), err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: row %d: non-boolean result", ErrFilter, rec.Row)
	}
	return matched, nil
}

var _ Filter = (*ExprFilter)(nil)
