package calculator

import "math"

// Abramowitz & Stegun 7.1.26 coefficients. Max absolute error ~1.5e-7.
// Odds are priced from this exact form; do not swap in math.Erf.
const (
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
	erfP  = 0.3275911
)

// Erf approximates the error function.
func Erf(x float64) float64 {
	if x == 0 {
		return 0
	}
	sign := 1.0
	if x < 0 {
		sign = -1
	}
	ax := math.Abs(x)
	t := 1 / (1 + erfP*ax)
	y := 1 - (((((erfA5*t+erfA4)*t)+erfA3)*t+erfA2)*t+erfA1)*t*math.Exp(-ax*ax)
	return sign * y
}

// NormalCDF is Φ(x) for the standard normal distribution.
func NormalCDF(x float64) float64 {
	return 0.5 * (1 + Erf(x/math.Sqrt2))
}
