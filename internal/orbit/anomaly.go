package orbit

import "math"

// TrueAnomaly converts eccentric anomaly E to true anomaly ν for e < 1.
// The half-angle form keeps ν continuous; the result lies in (−π, π] for E in (−π, π].
func TrueAnomaly(E, e float64) float64 {
	sinHalf, cosHalf := math.Sincos(E / 2)
	return 2 * math.Atan2(math.Sqrt(1+e)*sinHalf, math.Sqrt(1-e)*cosHalf)
}

// RadialDistance returns the orbital radius at true anomaly ν, in the unit of a.
func RadialDistance(a, e, nu float64) float64 {
	return a * (1 - e*e) / (1 + e*math.Cos(nu))
}
