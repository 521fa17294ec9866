package orbit

import (
	"math"

	"neo-velocity-lab/internal/domain"
)

// Solution holds the intermediates of one velocity computation.
type Solution struct {
	EccentricAnomaly float64 // E, rad
	TrueAnomaly      float64 // ν, rad
	Iterations       int     // Kepler iterations used

	RadiusAU float64 // r, AU
	RadiusM  float64 // r, m

	Speed           float64 // vis-viva |v|, m/s
	RadialSpeed     float64 // vr in the orbital plane, m/s
	TangentialSpeed float64 // vt in the orbital plane, m/s

	// PlanarPosition is (r·cosν, r·sinν) in AU, in the orbital plane.
	// Not part of the output.
	PlanarPosition [2]float64

	Velocity domain.Vector3 // m/s, ecliptic frame
}

// Calculator derives heliocentric velocity vectors from classical elements.
// Safe for concurrent use.
type Calculator struct {
	constants Constants
	solver    Solver
}

// NewCalculator creates a Calculator for the given primary body.
func NewCalculator(c Constants) *Calculator {
	return &Calculator{
		constants: c,
		solver:    DefaultSolver,
	}
}

// WithSolver returns a copy of the calculator that uses s for Kepler's equation.
func (c *Calculator) WithSolver(s Solver) *Calculator {
	cp := *c
	cp.solver = s
	return &cp
}

// Constants returns the physical constants in use.
func (c *Calculator) Constants() Constants {
	return c.constants
}

// Velocity returns the ecliptic velocity vector (m/s) for semi-major axis a
// (AU), eccentricity e and angles i, Ω, ω, M in radians.
func (c *Calculator) Velocity(a, e, i, Ω, ω, M float64) (domain.Vector3, error) {
	sol, err := c.Solve(a, e, i, Ω, ω, M)
	if err != nil {
		return domain.Vector3{}, err
	}
	return sol.Velocity, nil
}

// Solve runs the full computation and returns every intermediate.
//
// The returned vector is the vis-viva speed scaled by the periapsis direction
// cosines, not the rotated (vr, vt) pair. Its norm equals Speed.
func (c *Calculator) Solve(a, e, i, Ω, ω, M float64) (*Solution, error) {
	if err := validateElements(a, e, i, Ω, ω, M); err != nil {
		return nil, err
	}

	E, iterations, err := c.solver.Solve(M, e)
	if err != nil {
		return nil, err
	}

	nu := TrueAnomaly(E, e)
	r := RadialDistance(a, e, nu)

	mu := c.constants.Mu()
	rM := r * c.constants.AU
	aM := a * c.constants.AU

	// vis-viva
	v := math.Sqrt(mu * (2/rM - 1/aM))

	sinNu, cosNu := math.Sincos(nu)
	h := math.Sqrt(mu/aM) / math.Sqrt(1-e*e)
	vr := h * e * sinNu
	vt := h * (1 + e*cosNu)

	dir := PeriapsisDirection(i, ω, Ω)

	sol := &Solution{
		EccentricAnomaly: E,
		TrueAnomaly:      nu,
		Iterations:       iterations,
		RadiusAU:         r,
		RadiusM:          rM,
		Speed:            v,
		RadialSpeed:      vr,
		TangentialSpeed:  vt,
		PlanarPosition:   [2]float64{r * cosNu, r * sinNu},
		Velocity:         domain.Vector3{v * dir[0], v * dir[1], v * dir[2]},
	}

	for k, comp := range sol.Velocity {
		if math.IsNaN(comp) || math.IsInf(comp, 0) {
			return nil, &DomainError{Param: velocityParams[k], Value: comp, Reason: "computation produced a non-finite value"}
		}
	}

	return sol, nil
}

var velocityParams = [3]string{"vel_x", "vel_y", "vel_z"}

func validateElements(a, e, i, Ω, ω, M float64) error {
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"semi_major_axis", a},
		{"eccentricity", e},
		{"inclination", i},
		{"longitude_ascending_node", Ω},
		{"argument_of_periapsis", ω},
		{"mean_anomaly", M},
	} {
		if err := checkFinite(p.name, p.v); err != nil {
			return err
		}
	}
	if a <= 0 {
		return &DomainError{Param: "semi_major_axis", Value: a, Reason: "must be > 0"}
	}
	return checkEccentricity(e)
}
