package orbit

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// R1 rotation about the 1st axis.
func R1(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R3 rotation about the 3rd axis.
func R3(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// PQW2Ecliptic returns R3(−Ω)·R1(−i)·R3(−ω), which takes perifocal (PQW)
// components into the ecliptic frame.
func PQW2Ecliptic(i, ω, Ω float64) *mat.Dense {
	var nodeIncl, full mat.Dense
	nodeIncl.Mul(R3(-Ω), R1(-i))
	full.Mul(&nodeIncl, R3(-ω))
	return &full
}

// PeriapsisDirection returns the unit vector of the periapsis direction (the
// first PQW axis) expressed in the ecliptic frame.
func PeriapsisDirection(i, ω, Ω float64) [3]float64 {
	var dir mat.VecDense
	dir.MulVec(PQW2Ecliptic(i, ω, Ω), mat.NewVecDense(3, []float64{1, 0, 0}))
	return [3]float64{dir.AtVec(0), dir.AtVec(1), dir.AtVec(2)}
}
