package model

import "time"

// SessionReport is the summary written when the service shuts down.
type SessionReport struct {
	Estimate     Estimate     `json:"estimate"`
	AccuracyRank int          `json:"accuracy_rank"`
	NeedleLength float64      `json:"needle_length"`
	LineSpacing  float64      `json:"line_spacing"`
	Fund         FundState    `json:"fund"`
	Wager        *WagerStatus `json:"wager,omitempty"`
	LastResult   *WagerResult `json:"last_result,omitempty"`
	GeneratedAt  time.Time    `json:"generated_at"`
}
