package orbit

import (
	"errors"
	"math"
	"testing"
)

func TestMass_Zero(t *testing.T) {
	for _, rho := range []float64{1, ReferenceDensity, 7800} {
		m, err := Mass(0, rho)
		if err != nil {
			t.Fatalf("Mass(0, %v): %v", rho, err)
		}
		if m != 0 {
			t.Errorf("Mass(0, %v) = %v, want 0", rho, m)
		}
	}
}

func TestMass_OneKilometer(t *testing.T) {
	m, err := Mass(1000, ReferenceDensity)
	if err != nil {
		t.Fatalf("Mass: %v", err)
	}
	want := 2500 * 4.0 / 3.0 * math.Pi * math.Pow(500, 3)
	if math.Abs(m-want)/want > 1e-12 {
		t.Errorf("Mass(1000, 2500) = %v, want %v", m, want)
	}
}

func TestMass_Monotonic(t *testing.T) {
	prev := -1.0
	for d := 0.0; d <= 50000; d += 137.5 {
		m, err := Mass(d, ReferenceDensity)
		if err != nil {
			t.Fatalf("Mass(%v): %v", d, err)
		}
		if m <= prev {
			t.Fatalf("mass not increasing at d=%v: %v <= %v", d, m, prev)
		}
		prev = m
	}
}

func TestMass_InvalidInput(t *testing.T) {
	cases := []struct {
		name       string
		d, density float64
	}{
		{"negative diameter", -1, ReferenceDensity},
		{"zero density", 10, 0},
		{"negative density", 10, -2500},
		{"NaN diameter", math.NaN(), ReferenceDensity},
		{"Inf density", 10, math.Inf(1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Mass(tc.d, tc.density); !errors.Is(err, ErrDomain) {
				t.Errorf("expected ErrDomain, got %v", err)
			}
		})
	}
}
