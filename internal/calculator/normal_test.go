package calculator

import (
	"math"
	"testing"
)

func TestErf_MatchesStdlibWithinBound(t *testing.T) {
	for x := -4.0; x <= 4.0; x += 0.01 {
		if d := math.Abs(Erf(x) - math.Erf(x)); d > 2e-7 {
			t.Fatalf("Erf(%.2f) off by %g", x, d)
		}
	}
}

func TestErf_OddAndZero(t *testing.T) {
	if Erf(0) != 0 {
		t.Errorf("Erf(0): expected 0, got %g", Erf(0))
	}
	for _, x := range []float64{0.1, 0.7, 1.3, 2.9} {
		if Erf(-x) != -Erf(x) {
			t.Errorf("Erf should be odd at %g", x)
		}
	}
}

func TestNormalCDF(t *testing.T) {
	tests := []struct {
		x, want float64
	}{
		{0, 0.5},
		{1.959964, 0.975},
		{-1.959964, 0.025},
		{math.Inf(1), 1},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		got := NormalCDF(tt.x)
		if math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("NormalCDF(%g): expected %g, got %g", tt.x, tt.want, got)
		}
	}
}
