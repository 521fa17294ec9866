package api

import (
	"neo-velocity-lab/internal/domain"
	"neo-velocity-lab/internal/orbit"
)

// VectorJSON is a velocity vector in m/s.
type VectorJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// SolutionJSON exposes the intermediates of a computation.
type SolutionJSON struct {
	EccentricAnomaly float64 `json:"eccentric_anomaly"`
	TrueAnomaly      float64 `json:"true_anomaly"`
	Iterations       int     `json:"iterations"`
	RadiusAU         float64 `json:"radius_au"`
	RadialSpeed      float64 `json:"radial_speed"`
	TangentialSpeed  float64 `json:"tangential_speed"`
}

// VelocityResponse is returned by the velocity endpoint and the WebSocket stream.
type VelocityResponse struct {
	Name     string        `json:"name"`
	Velocity VectorJSON    `json:"velocity"`
	Speed    float64       `json:"speed"`
	Mass     float64       `json:"mass"`
	PHA      bool          `json:"pha"`
	Solution *SolutionJSON `json:"solution,omitempty"`
}

// RunJSON is a persisted pipeline run.
type RunJSON struct {
	RunID       string `json:"run_id"`
	InputPath   string `json:"input_path"`
	OutputPath  string `json:"output_path"`
	Status      string `json:"status"`
	RowsRead    int    `json:"rows_read"`
	FilteredOut int    `json:"filtered_out"`
	Processed   int    `json:"processed"`
	Skipped     int    `json:"skipped"`
	StartedAt   int64  `json:"started_at"`
	FinishedAt  int64  `json:"finished_at"`
}

// ResultJSON is one persisted result row.
type ResultJSON struct {
	ResultID string     `json:"result_id"`
	RowIndex int        `json:"row_index"`
	Name     string     `json:"name"`
	Velocity VectorJSON `json:"velocity"`
	Mass     float64    `json:"mass"`
	PHA      bool       `json:"pha"`
}

func toVectorJSON(v domain.Vector3) VectorJSON {
	return VectorJSON{X: v.X(), Y: v.Y(), Z: v.Z()}
}

func toVelocityResponse(res domain.VelocityResult, sol *orbit.Solution) VelocityResponse {
	resp := VelocityResponse{
		Name:     res.Name,
		Velocity: toVectorJSON(res.Velocity),
		Speed:    res.Velocity.Norm(),
		Mass:     res.Mass,
		PHA:      res.IsHazardous,
	}
	if sol != nil {
		resp.Solution = &SolutionJSON{
			EccentricAnomaly: sol.EccentricAnomaly,
			TrueAnomaly:      sol.TrueAnomaly,
			Iterations:       sol.Iterations,
			RadiusAU:         sol.RadiusAU,
			RadialSpeed:      sol.RadialSpeed,
			TangentialSpeed:  sol.TangentialSpeed,
		}
	}
	return resp
}

func toRunJSON(r *domain.Run) RunJSON {
	return RunJSON{
		RunID:       r.RunID,
		InputPath:   r.InputPath,
		OutputPath:  r.OutputPath,
		Status:      r.Status,
		RowsRead:    r.RowsRead,
		FilteredOut: r.FilteredOut,
		Processed:   r.Processed,
		Skipped:     r.Skipped,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
}

func toResultJSON(r *domain.ResultRecord) ResultJSON {
	return ResultJSON{
		ResultID: r.ResultID,
		RowIndex: r.RowIndex,
		Name:     r.Name,
		Velocity: toVectorJSON(r.Velocity),
		Mass:     r.Mass,
		PHA:      r.IsHazardous,
	}
}
