package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFilter_FlagCombinations(t *testing.T) {
	tests := []struct {
		neo, pha string
		want     bool
	}{
		{"N", "N", false},
		{"Y", "N", true},
		{"N", "Y", true},
		{"Y", "Y", true},
		{"", "N", true},
		{"n", "N", true},
		{"N ", "N", true},
		{"N", "", true},
	}

	for _, tt := range tests {
		rec := NewRecord(1, map[string]string{FieldNEO: tt.neo, FieldPHA: tt.pha})
		got, err := DefaultFilter.Include(rec)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "neo=%q pha=%q", tt.neo, tt.pha)
	}
}

func TestDefaultFilter_MissingFlagsPass(t *testing.T) {
	got, err := DefaultFilter.Include(NewRecord(1, map[string]string{FieldName: "x"}))
	require.NoError(t, err)
	assert.True(t, got)
}

func TestExprFilter(t *testing.T) {
	f, err := NewExprFilter(`row.pha == "Y" && double(row.diameter) > 0.5`)
	require.NoError(t, err)
	assert.Equal(t, `row.pha == "Y" && double(row.diameter) > 0.5`, f.Expr())

	big := NewRecord(1, map[string]string{FieldPHA: "Y", FieldDiameter: "1.2"})
	small := NewRecord(2, map[string]string{FieldPHA: "Y", FieldDiameter: "0.1"})
	safe := NewRecord(3, map[string]string{FieldPHA: "N", FieldDiameter: "3"})

	for _, tc := range []struct {
		rec  Record
		want bool
	}{{big, true}, {small, false}, {safe, false}} {
		got, err := f.Include(tc.rec)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "row %d", tc.rec.Row)
	}
}

func TestExprFilter_EvalError(t *testing.T) {
	f, err := NewExprFilter(`double(row.diameter) > 1.0`)
	require.NoError(t, err)

	_, err = f.Include(NewRecord(4, map[string]string{FieldDiameter: ""}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFilter))
}

func TestExprFilter_CompileErrors(t *testing.T) {
	_, err := NewExprFilter(`row.pha ==`)
	assert.Error(t, err, "syntax error")

	_, err = NewExprFilter(`row.pha`)
	assert.Error(t, err, "non-bool expression")
}

func TestAll(t *testing.T) {
	expr, err := NewExprFilter(`row.name != "skip"`)
	require.NoError(t, err)
	f := All(DefaultFilter, expr)

	keep, err := f.Include(NewRecord(1, map[string]string{FieldName: "keep", FieldNEO: "Y", FieldPHA: "N"}))
	require.NoError(t, err)
	assert.True(t, keep)

	skip, err := f.Include(NewRecord(2, map[string]string{FieldName: "skip", FieldNEO: "Y", FieldPHA: "N"}))
	require.NoError(t, err)
	assert.False(t, skip)

	notNEO, err := f.Include(NewRecord(3, map[string]string{FieldName: "keep", FieldNEO: "N", FieldPHA: "N"}))
	require.NoError(t, err)
	assert.False(t, notNEO)
}
