package pricing

import (
	"math"

	"BuffonBet/internal/calculator"
	"BuffonBet/internal/estimator"
	"BuffonBet/internal/model"
)

const (
	// DefaultMaxOdds caps payouts when a Model has no cap configured.
	DefaultMaxOdds = 50.0

	minCrossProbability = 1e-6
	maxCrossProbability = 0.999999
	minCrossings        = 1e-6
	minSigmaPi          = 1e-6

	minQuoteProbability = 0.001
	maxQuoteProbability = 0.999

	// unavailableOdds is returned for a probability that is not a number.
	unavailableOdds = 1.01
)

// Model prices bets on whether the running estimate reaches a target
// accuracy within a number of future trials. Quotes are pure functions of
// their inputs.
type Model struct {
	NeedleLength float64
	LineSpacing  float64
	HouseEdge    float64 // share of the fair excess kept by the house, [0, 1)
	MaxOdds      float64
}

// NewModel creates a pricing model. A maxOdds below 1, or NaN, selects DefaultMaxOdds.
func NewModel(needleLength, lineSpacing, houseEdge, maxOdds float64) *Model {
	return &Model{
		NeedleLength: needleLength,
		LineSpacing:  lineSpacing,
		HouseEdge:    houseEdge,
		MaxOdds:      maxOdds,
	}
}

// Quote computes fresh YES/NO probabilities and odds for reaching
// targetDigits within futureTrials more drops, starting from counts.
func (m *Model) Quote(counts estimator.Counts, futureTrials int64, targetDigits int) model.ConvergenceQuote {
	q := model.ConvergenceQuote{FutureTrials: futureTrials, TargetDigits: targetDigits}

	// Nothing more will be dropped: an unconverged run cannot converge.
	if futureTrials <= 0 {
		return m.fill(q, 0)
	}

	yes := m.ProbabilityYes(counts, futureTrials, targetDigits)
	return m.fill(q, yes)
}

func (m *Model) fill(q model.ConvergenceQuote, yes float64) model.ConvergenceQuote {
	q.ProbabilityYes = yes
	q.ProbabilityNo = clamp(1-yes, 0, 1)
	q.OddsYes = m.Odds(q.ProbabilityYes)
	q.OddsNo = m.Odds(q.ProbabilityNo)
	return q
}

// ProbabilityYes is the normal-approximation probability that the estimate
// after futureTrials more drops lies within Tolerance(targetDigits) of π.
// Always finite, in [0, 1].
func (m *Model) ProbabilityYes(counts estimator.Counts, futureTrials int64, targetDigits int) float64 {
	if futureTrials <= 0 {
		return 0
	}
	L, D := m.NeedleLength, m.LineSpacing
	tolerance := calculator.Tolerance(targetDigits)
	future := float64(futureTrials)
	finalTrials := float64(counts.Trials) + future

	// Step 1: theoretical per-trial crossing probability
	q := clamp(2*L/(math.Pi*D), minCrossProbability, maxCrossProbability)

	// Step 2: future crossings ~ Binomial(future, q) ≈ Normal
	expectedCrossings := future * q
	varianceCrossings := future * q * (1 - q)

	// Step 3: projected totals, floored away from zero
	meanCrossings := math.Max(float64(counts.Crossings)+expectedCrossings, minCrossings)
	sigmaCrossings := math.Sqrt(math.Max(varianceCrossings, minCrossings))

	// Step 4: first-order propagation through π̂ = 2LN/(DC)
	meanPi := (2 * L * finalTrials) / (D * meanCrossings)
	derivative := -(2 * L * finalTrials) / (D * meanCrossings * meanCrossings)
	sigmaPi := math.Max(math.Abs(derivative)*sigmaCrossings, minSigmaPi)

	// Step 5: mass of Normal(meanPi, sigmaPi²) inside π ± tolerance
	lowerZ := (math.Pi - tolerance - meanPi) / sigmaPi
	upperZ := (math.Pi + tolerance - meanPi) / sigmaPi
	p := calculator.NormalCDF(upperZ) - calculator.NormalCDF(lowerZ)
	if math.IsNaN(p) {
		return 0
	}
	return clamp(p, 0, 1)
}

// Odds converts a win probability to a payout multiplier with the model's
// house edge and cap.
func (m *Model) Odds(p float64) float64 {
	return probabilityToOdds(p, m.HouseEdge, m.MaxOdds)
}

// ProbabilityToOdds converts a win probability into decimal odds, keeping
// houseEdge of the fair excess 1/p − 1 for the house. Result is in [1, 50].
func ProbabilityToOdds(p, houseEdge float64) float64 {
	return probabilityToOdds(p, houseEdge, DefaultMaxOdds)
}

func probabilityToOdds(p, houseEdge, maxOdds float64) float64 {
	if math.IsNaN(p) {
		return unavailableOdds
	}
	if maxOdds < 1 || math.IsNaN(maxOdds) {
		maxOdds = DefaultMaxOdds
	}
	bounded := clamp(p, minQuoteProbability, maxQuoteProbability)
	excess := 1/bounded - 1
	odds := 1 + (1-houseEdge)*excess
	if math.IsNaN(odds) {
		return unavailableOdds
	}
	return clamp(odds, 1, maxOdds)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
