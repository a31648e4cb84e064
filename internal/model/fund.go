package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundState tracks the betting balance of a session.
type FundState struct {
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Balance        decimal.Decimal `json:"balance"`
	GamesWon       int             `json:"games_won"`
	GamesPlayed    int             `json:"games_played"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
