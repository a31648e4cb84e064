package fund

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestManager_DebitRefundRestoresBalance(t *testing.T) {
	m := NewManager(decimal.NewFromInt(100))
	stake := decimal.RequireFromString("10.10")

	if err := m.Debit(stake); err != nil {
		t.Fatalf("unexpected debit error: %v", err)
	}
	if got := m.Balance(); !got.Equal(decimal.RequireFromString("89.90")) {
		t.Errorf("expected 89.90 after debit, got %s", got)
	}

	m.Refund(stake)
	if got := m.Balance(); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected 100 after refund, got %s", got)
	}
	if s := m.GetState(); s.GamesPlayed != 0 || s.GamesWon != 0 {
		t.Errorf("refund should not count a game, got %+v", s)
	}
}

func TestManager_DebitOverBalance(t *testing.T) {
	m := NewManager(decimal.NewFromInt(100))
	err := m.Debit(decimal.NewFromInt(150))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if !m.Balance().Equal(decimal.NewFromInt(100)) {
		t.Errorf("failed debit must not change the balance, got %s", m.Balance())
	}
	if err := m.Debit(decimal.NewFromInt(100)); err != nil {
		t.Errorf("debiting the whole balance should succeed, got %v", err)
	}
}

func TestManager_Settle(t *testing.T) {
	m := NewManager(decimal.NewFromInt(90))

	m.Settle(false, decimal.Zero)
	m.Settle(true, decimal.RequireFromString("19.00"))

	s := m.GetState()
	if s.GamesPlayed != 2 || s.GamesWon != 1 {
		t.Errorf("expected 2 played / 1 won, got %d / %d", s.GamesPlayed, s.GamesWon)
	}
	if !s.Balance.Equal(decimal.NewFromInt(109)) {
		t.Errorf("expected balance 109, got %s", s.Balance)
	}
	if !s.InitialBalance.Equal(decimal.NewFromInt(90)) {
		t.Errorf("initial balance should be kept, got %s", s.InitialBalance)
	}
}
