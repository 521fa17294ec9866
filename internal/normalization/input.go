package normalization

import (
	"strings"

	"github.com/soniakeys/unit"

	"neo-velocity-lab/internal/catalog"
	"neo-velocity-lab/internal/domain"
)

// ElementsInput is the textual-side representation used by the HTTP and
// WebSocket APIs. Angles are in degrees, diameter in km.
type ElementsInput struct {
	Name      string  `json:"name"`
	Hazardous bool    `json:"pha"`
	A         float64 `json:"a"`
	E         float64 `json:"e"`
	I         float64 `json:"i"`
	OM        float64 `json:"om"`
	W         float64 `json:"w"`
	MA        float64 `json:"ma"`
	Diameter  float64 `json:"diameter"`
}

// Elements converts the input to radians.
func (in ElementsInput) Elements() domain.OrbitalElements {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = catalog.UnknownName
	}
	return domain.OrbitalElements{
		Name:                   name,
		IsHazardous:            in.Hazardous,
		SemiMajorAxisAU:        in.A,
		Eccentricity:           in.E,
		Inclination:            unit.AngleFromDeg(in.I).Rad(),
		LongitudeAscendingNode: unit.AngleFromDeg(in.OM).Rad(),
		ArgumentOfPeriapsis:    unit.AngleFromDeg(in.W).Rad(),
		MeanAnomaly:            unit.AngleFromDeg(in.MA).Rad(),
		DiameterKm:             in.Diameter,
	}
}
