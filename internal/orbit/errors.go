package orbit

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDomain is returned for inputs outside the supported elliptic regime.
	ErrDomain = errors.New("orbit: input out of domain")

	// ErrNoConvergence is returned when the Kepler iteration hits its cap.
	ErrNoConvergence = errors.New("orbit: kepler iteration did not converge")
)

// DomainError reports which parameter was rejected and why.
type DomainError struct {
	Param  string
	Value  float64
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("orbit: %s=%g rejected: %s", e.Param, e.Value, e.Reason)
}

// Is reports whether target is ErrDomain.
func (e *DomainError) Is(target error) bool {
	return target == ErrDomain
}

// ConvergenceError is returned by Solver.Solve when MaxIterations is exhausted.
type ConvergenceError struct {
	MeanAnomaly  float64
	Eccentricity float64
	Iterations   int
	LastDelta    float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("orbit: kepler iteration did not converge after %d iterations (M=%g, e=%g, last delta=%g)",
		e.Iterations, e.MeanAnomaly, e.Eccentricity, e.LastDelta)
}

// Is reports whether target is ErrNoConvergence.
func (e *ConvergenceError) Is(target error) bool {
	return target == ErrNoConvergence
}

func checkFinite(param string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &DomainError{Param: param, Value: v, Reason: "not a finite number"}
	}
	return nil
}

func checkEccentricity(e float64) error {
	if err := checkFinite("eccentricity", e); err != nil {
		return err
	}
	if e < 0 || e >= 1 {
		return &DomainError{Param: "eccentricity", Value: e, Reason: "must be in [0, 1)"}
	}
	return nil
}
