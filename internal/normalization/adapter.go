// Package normalization turns raw catalog rows into numeric orbital elements
// and runs them through the orbit core.
package normalization

import (
	"errors"
	"fmt"

	"github.com/soniakeys/unit"

	"neo-velocity-lab/internal/catalog"
	"neo-velocity-lab/internal/domain"
	"neo-velocity-lab/internal/orbit"
)

// Error kinds reported per skipped record.
const (
	ErrorKindParse       = "parse"
	ErrorKindDomain      = "domain"
	ErrorKindConvergence = "convergence"
	ErrorKindFilter      = "filter"
	ErrorKindOther       = "other"
)

// RecordError ties a conversion failure to the catalog row it came from.
type RecordError struct {
	Row  int
	Name string
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("row %d (%s): %v", e.Row, e.Name, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Kind classifies the wrapped error.
func (e *RecordError) Kind() string {
	return Classify(e.Err)
}

// Classify maps an error to one of the ErrorKind constants.
func Classify(err error) string {
	switch {
	case errors.Is(err, catalog.ErrParse):
		return ErrorKindParse
	case errors.Is(err, orbit.ErrNoConvergence):
		return ErrorKindConvergence
	case errors.Is(err, orbit.ErrDomain):
		return ErrorKindDomain
	case errors.Is(err, catalog.ErrFilter):
		return ErrorKindFilter
	default:
		return ErrorKindOther
	}
}

// Adapter converts catalog rows to VelocityResults.
type Adapter struct {
	calc    *orbit.Calculator
	density float64
}

// NewAdapter creates an Adapter. density is the assumed bulk density in kg/m^3.
func NewAdapter(calc *orbit.Calculator, density float64) *Adapter {
	return &Adapter{calc: calc, density: density}
}

// Elements parses the numeric fields of rec and converts angles to radians.
// Blank or missing numbers are 0; unparseable ones return a *catalog.ParseError.
func (a *Adapter) Elements(rec catalog.Record) (domain.OrbitalElements, error) {
	el := domain.OrbitalElements{
		Name:        rec.Name(),
		IsHazardous: rec.Value(catalog.FieldPHA) == "Y",
	}

	var deg struct{ i, om, w, ma float64 }
	for _, f := range []struct {
		field string
		dst   *float64
	}{
		{catalog.FieldA, &el.SemiMajorAxisAU},
		{catalog.FieldE, &el.Eccentricity},
		{catalog.FieldI, &deg.i},
		{catalog.FieldOM, &deg.om},
		{catalog.FieldW, &deg.w},
		{catalog.FieldMA, &deg.ma},
		{catalog.FieldDiameter, &el.DiameterKm},
	} {
		v, err := rec.Float(f.field)
		if err != nil {
			return domain.OrbitalElements{}, err
		}
		*f.dst = v
	}

	el.Inclination = unit.AngleFromDeg(deg.i).Rad()
	el.LongitudeAscendingNode = unit.AngleFromDeg(deg.om).Rad()
	el.ArgumentOfPeriapsis = unit.AngleFromDeg(deg.w).Rad()
	el.MeanAnomaly = unit.AngleFromDeg(deg.ma).Rad()

	return el, nil
}

// Convert produces the VelocityResult for one row. Failures are returned as *RecordError.
func (a *Adapter) Convert(rec catalog.Record) (domain.VelocityResult, error) {
	el, err := a.Elements(rec)
	if err != nil {
		return domain.VelocityResult{}, &RecordError{Row: rec.Row, Name: rec.Name(), Err: err}
	}

	res, _, err := a.ConvertElements(el)
	if err != nil {
		return domain.VelocityResult{}, &RecordError{Row: rec.Row, Name: el.Name, Err: err}
	}
	return res, nil
}

// ConvertElements runs the orbit core on already-normalized elements and also
// returns the full Solution.
func (a *Adapter) ConvertElements(el domain.OrbitalElements) (domain.VelocityResult, *orbit.Solution, error) {
	sol, err := a.calc.Solve(
		el.SemiMajorAxisAU,
		el.Eccentricity,
		el.Inclination,
		el.LongitudeAscendingNode,
		el.ArgumentOfPeriapsis,
		el.MeanAnomaly,
	)
	if err != nil {
		return domain.VelocityResult{}, nil, err
	}

	mass, err := orbit.Mass(el.DiameterM(), a.density)
	if err != nil {
		return domain.VelocityResult{}, nil, err
	}

	return domain.VelocityResult{
		Name:        el.Name,
		Velocity:    sol.Velocity,
		Mass:        mass,
		IsHazardous: el.IsHazardous,
	}, sol, nil
}
