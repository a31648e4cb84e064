package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"BuffonBet/internal/model"

	"github.com/shopspring/decimal"
)

func TestSQLiteRecorder_RecordWager(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	defer r.Close()

	res := &model.WagerResult{
		WagerID:           "w-1",
		Direction:         model.DirectionNo,
		Won:               true,
		Stake:             decimal.NewFromInt(10),
		Payout:            decimal.RequireFromString("10.01"),
		LockedOdds:        1.001,
		LockedProbability: 0.99,
		TargetTrials:      500,
		TargetDigits:      5,
		FinalEstimate:     3.15,
		FinalTrials:       500,
		ResolvedAt:        time.Unix(1700000000, 0),
	}
	fund := &model.FundState{Balance: decimal.RequireFromString("100.01"), GamesWon: 1}
	if err := r.RecordWager(&WagerEvent{Result: res, Fund: fund}); err != nil {
		t.Fatalf("record wager: %v", err)
	}

	var (
		wagerID, payout, balance string
		won                      int
		ts                       int64
	)
	row := r.db.QueryRow(`SELECT wager_id, payout, balance_after, won, timestamp FROM wagers`)
	if err := row.Scan(&wagerID, &payout, &balance, &won, &ts); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if wagerID != "w-1" || payout != "10.01" || balance != "100.01" || won != 1 || ts != 1700000000 {
		t.Errorf("unexpected row: id=%s payout=%s balance=%s won=%d ts=%d", wagerID, payout, balance, won, ts)
	}
}

func TestSQLiteRecorder_RecordSnapshot(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	defer r.Close()

	est := &model.Estimate{Trials: 1000, Crossings: 300, PiEstimate: 3.3333, Valid: true}
	for i := 0; i < 3; i++ {
		if err := r.RecordSnapshot(&Snapshot{Estimate: est, NeedleLength: 50, LineSpacing: 100}); err != nil {
			t.Fatalf("record snapshot: %v", err)
		}
	}

	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM estimate_snapshots`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 snapshots, got %d", n)
	}
}
