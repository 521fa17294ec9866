package orbit

import "fmt"

// Reference physical constants (SI).
const (
	GravitationalConstant = 6.67430e-11 // m^3 kg^-1 s^-2
	SolarMass             = 1.989e30    // kg
	AstronomicalUnit      = 1.496e11    // m
)

// Constants are the physical values a Calculator works with.
// The primary is the central body the elements are referenced to.
type Constants struct {
	G           float64 // gravitational constant, m^3 kg^-1 s^-2
	PrimaryMass float64 // kg
	AU          float64 // meters per astronomical unit
}

// SunConstants returns the heliocentric reference constants.
func SunConstants() Constants {
	return Constants{
		G:           GravitationalConstant,
		PrimaryMass: SolarMass,
		AU:          AstronomicalUnit,
	}
}

// Mu returns the standard gravitational parameter G·M of the primary (m^3 s^-2).
func (c Constants) Mu() float64 {
	return c.G * c.PrimaryMass
}

// Validate checks that every constant is finite and positive.
func (c Constants) Validate() error {
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"G", c.G},
		{"primary_mass", c.PrimaryMass},
		{"au", c.AU},
	} {
		if err := checkFinite(p.name, p.v); err != nil {
			return err
		}
		if p.v <= 0 {
			return fmt.Errorf("constant %s must be positive, got %g: %w", p.name, p.v, ErrDomain)
		}
	}
	return nil
}
