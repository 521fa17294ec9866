package domain

import "math"

// Vector3 is a Cartesian 3-vector.
type Vector3 [3]float64

// X returns the first component.
func (v Vector3) X() float64 { return v[0] }

// Y returns the second component.
func (v Vector3) Y() float64 { return v[1] }

// Z returns the third component.
func (v Vector3) Z() float64 { return v[2] }

// Norm returns the Euclidean length.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// VelocityResult is the output row for one processed object.
type VelocityResult struct {
	Name        string
	Velocity    Vector3 // m/s, ecliptic inertial frame
	Mass        float64 // kg
	IsHazardous bool
}

// ResultRecord is a VelocityResult as persisted by a run.
type ResultRecord struct {
	ResultID string // deterministic hash of (run_id, row_index, name)
	RunID    string
	RowIndex int // 1-based data row in the input file
	VelocityResult
}
