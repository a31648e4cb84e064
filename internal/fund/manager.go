package fund

import (
	"errors"
	"sync"
	"time"

	"BuffonBet/internal/model"

	"github.com/shopspring/decimal"
)

// ErrInsufficientBalance is returned when a debit exceeds the balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Manager holds the session balance with concurrency safety.
// The balance only changes through wager settlement: Debit on placement,
// Refund on cancellation, Settle on resolution.
type Manager struct {
	mu    sync.Mutex
	state *model.FundState
	now   func() time.Time
}

// NewManager creates a Manager funded with initialBalance.
func NewManager(initialBalance decimal.Decimal) *Manager {
	m := &Manager{now: time.Now}
	m.state = &model.FundState{
		InitialBalance: initialBalance,
		Balance:        initialBalance,
		UpdatedAt:      m.now(),
	}
	return m
}

// GetState returns a copy of the current fund state.
func (m *Manager) GetState() model.FundState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.state
}

// Balance returns the spendable balance.
func (m *Manager) Balance() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Balance
}

// Debit removes a stake from the balance.
func (m *Manager) Debit(amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if amount.GreaterThan(m.state.Balance) {
		return ErrInsufficientBalance
	}
	m.state.Balance = m.state.Balance.Sub(amount)
	m.touch()
	return nil
}

// Refund returns a stake in full. The game counters are not touched.
func (m *Manager) Refund(amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Balance = m.state.Balance.Add(amount)
	m.touch()
}

// Settle books a finished wager. A win credits payout and counts as a game won.
func (m *Manager) Settle(won bool, payout decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.GamesPlayed++
	if won {
		m.state.Balance = m.state.Balance.Add(payout)
		m.state.GamesWon++
	}
	m.touch()
}

func (m *Manager) touch() {
	m.state.UpdatedAt = m.now()
}
