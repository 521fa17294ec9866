package domain

// OrbitalElements is the numeric view of one catalog row.
// All angles are in radians; degrees never reach the orbit package.
type OrbitalElements struct {
	Name        string
	IsHazardous bool

	SemiMajorAxisAU        float64 // a, AU
	Eccentricity           float64 // e, [0, 1) for supported orbits
	Inclination            float64 // i, rad
	LongitudeAscendingNode float64 // Ω, rad
	ArgumentOfPeriapsis    float64 // ω, rad
	MeanAnomaly            float64 // M, rad

	DiameterKm float64 // 0 when unknown
}

// DiameterM returns the diameter in meters.
func (e OrbitalElements) DiameterM() float64 {
	return e.DiameterKm * 1000
}
