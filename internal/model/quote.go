package model

// ConvergenceQuote prices a YES/NO bet on reaching TargetDigits of accuracy
// within FutureTrials more drops.
type ConvergenceQuote struct {
	FutureTrials   int64   `json:"future_trials"`
	TargetDigits   int     `json:"target_digits"`
	ProbabilityYes float64 `json:"probability_yes"`
	ProbabilityNo  float64 `json:"probability_no"`
	OddsYes        float64 `json:"odds_yes"`
	OddsNo         float64 `json:"odds_no"`
}

// For returns the probability and odds of the given side.
func (q ConvergenceQuote) For(dir Direction) (probability, odds float64) {
	if dir == DirectionYes {
		return q.ProbabilityYes, q.OddsYes
	}
	return q.ProbabilityNo, q.OddsNo
}
