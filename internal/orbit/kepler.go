package orbit

import "math"

const (
	// DefaultTolerance is the absolute stopping tolerance on E, in radians.
	DefaultTolerance = 1e-6

	// DefaultMaxIterations caps the fixed-point iteration.
	DefaultMaxIterations = 1000
)

// Solver solves Kepler's equation E = M + e·sin(E) by fixed-point iteration.
type Solver struct {
	Tolerance     float64
	MaxIterations int
}

// DefaultSolver uses DefaultTolerance and DefaultMaxIterations.
var DefaultSolver = Solver{
	Tolerance:     DefaultTolerance,
	MaxIterations: DefaultMaxIterations,
}

// SolveKepler returns the eccentric anomaly for mean anomaly M (rad) and
// eccentricity e using DefaultSolver.
func SolveKepler(M, e float64) (float64, error) {
	E, _, err := DefaultSolver.Solve(M, e)
	return E, err
}

// Solve iterates E_{n+1} = M + e·sin(E_n) from E_0 = M until two successive
// iterates differ by less than the tolerance. It returns the newer of the two
// iterates, E_{n+1}, and the number of iterations used.
//
// A *DomainError is returned for non-finite input or e outside [0, 1).
// A *ConvergenceError is returned once MaxIterations is reached.
func (s Solver) Solve(M, e float64) (float64, int, error) {
	if err := checkFinite("mean_anomaly", M); err != nil {
		return 0, 0, err
	}
	if err := checkEccentricity(e); err != nil {
		return 0, 0, err
	}

	tol := s.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	E := M
	delta := math.Inf(1)
	for n := 1; n <= maxIter; n++ {
		next := M + e*math.Sin(E)
		delta = math.Abs(next - E)
		if delta < tol {
			return next, n, nil
		}
		E = next
	}

	return E, maxIter, &ConvergenceError{
		MeanAnomaly:  M,
		Eccentricity: e,
		Iterations:   maxIter,
		LastDelta:    delta,
	}
}
