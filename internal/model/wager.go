package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a convergence bet.
type Direction string

const (
	DirectionYes Direction = "YES" // accuracy will reach the target
	DirectionNo  Direction = "NO"
)

// ParseDirection accepts yes/no in any case.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "YES", "Y":
		return DirectionYes, true
	case "NO", "N":
		return DirectionNo, true
	}
	return "", false
}

func (d Direction) Valid() bool {
	return d == DirectionYes || d == DirectionNo
}

// WagerPhase is the lifecycle state of the wager slot.
type WagerPhase string

const (
	PhaseNone     WagerPhase = "NONE"
	PhaseActive   WagerPhase = "ACTIVE"
	PhaseResolved WagerPhase = "RESOLVED"
)

// Wager is the single active bet of a session.
type Wager struct {
	ID                 string          `json:"id"`
	Direction          Direction       `json:"direction"`
	Stake              decimal.Decimal `json:"stake"`
	TargetTrials       int64           `json:"target_trials"`
	TargetDigits       int             `json:"target_digits"`
	LockedOdds         float64         `json:"locked_odds"`
	LockedProbability  float64         `json:"locked_probability"`
	StartingTrialCount int64           `json:"starting_trial_count"`
	HasConverged       bool            `json:"has_converged"`
	IsResolved         bool            `json:"is_resolved"`
	PlacedAt           time.Time       `json:"placed_at"`
}

// PotentialPayout is the credit on a win at the locked odds.
func (w *Wager) PotentialPayout() decimal.Decimal {
	return w.Stake.Mul(decimal.NewFromFloat(w.LockedOdds))
}

// WagerStatus is the progress view rendered while a wager runs.
type WagerStatus struct {
	Phase            WagerPhase `json:"phase"`
	WagerID          string     `json:"wager_id,omitempty"`
	TrialsSinceStart int64      `json:"trials_since_start"`
	ProgressPercent  float64    `json:"progress_percent"`
	CurrentRank      int        `json:"current_rank"`
	HasConverged     bool       `json:"has_converged"`
	IsResolved       bool       `json:"is_resolved"`
}

// WagerResult is produced once when a wager resolves.
type WagerResult struct {
	WagerID           string          `json:"wager_id"`
	Direction         Direction       `json:"direction"`
	Won               bool            `json:"won"`
	Stake             decimal.Decimal `json:"stake"`
	Payout            decimal.Decimal `json:"payout"`
	LockedOdds        float64         `json:"locked_odds"`
	LockedProbability float64         `json:"locked_probability"`
	TargetTrials      int64           `json:"target_trials"`
	TargetDigits      int             `json:"target_digits"`
	HasConverged      bool            `json:"has_converged"`
	FinalEstimate     float64         `json:"final_estimate"`
	FinalAccuracyRank int             `json:"final_accuracy_rank"`
	FinalTrials       int64           `json:"final_trials"`
	ResolvedAt        time.Time       `json:"resolved_at"`
}
