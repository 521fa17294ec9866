package orbit

import "math"

// ReferenceDensity is the assumed bulk density of a stony body, kg/m^3.
const ReferenceDensity = 2500.0

// Mass estimates the mass (kg) of a homogeneous sphere of the given diameter
// (m) and density (kg/m^3). A zero diameter yields zero mass.
func Mass(diameterM, density float64) (float64, error) {
	if err := checkFinite("diameter", diameterM); err != nil {
		return 0, err
	}
	if err := checkFinite("density", density); err != nil {
		return 0, err
	}
	if diameterM < 0 {
		return 0, &DomainError{Param: "diameter", Value: diameterM, Reason: "must be >= 0"}
	}
	if density <= 0 {
		return 0, &DomainError{Param: "density", Value: density, Reason: "must be > 0"}
	}

	radius := diameterM / 2
	volume := 4.0 / 3.0 * math.Pi * radius * radius * radius
	return density * volume, nil
}
