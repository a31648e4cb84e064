package calculator

import "math"

// MaxAccuracyRank is the highest rank AccuracyRank reports.
const MaxAccuracyRank = 5

// accuracyThresholds maps an absolute error bound to the number of decimal
// digits of π the estimate is good for. Checked from the strictest down.
var accuracyThresholds = []struct {
	MaxError float64
	Rank     int
}{
	{0.000005, 5},
	{0.00005, 4},
	{0.0005, 3},
	{0.005, 2},
	{0.05, 1},
}

// AccuracyRank returns 0..5, the decimal digits of accuracy of piEstimate.
// Non-finite estimates rank 0.
func AccuracyRank(piEstimate float64) int {
	if math.IsNaN(piEstimate) || math.IsInf(piEstimate, 0) {
		return 0
	}
	errAbs := math.Abs(piEstimate - math.Pi)
	for _, t := range accuracyThresholds {
		if errAbs < t.MaxError {
			return t.Rank
		}
	}
	return 0
}

// Tolerance is the largest |estimate − π| that still counts as `digits` digits.
// Zero or fewer digits are always satisfied.
func Tolerance(digits int) float64 {
	if digits <= 0 {
		return 1
	}
	return 5 * math.Pow(10, -float64(digits+1))
}

// Converged reports whether piEstimate is accurate to at least digits.
func Converged(piEstimate float64, digits int) bool {
	return AccuracyRank(piEstimate) >= digits
}
