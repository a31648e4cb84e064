package recorder

import "BuffonBet/internal/model"

// WagerEvent holds a resolved wager and the balance right after settlement.
type WagerEvent struct {
	Result *model.WagerResult
	Fund   *model.FundState
}

// Snapshot holds a periodic sample of the running estimate.
type Snapshot struct {
	Estimate     *model.Estimate
	AccuracyRank int
	NeedleLength float64
	LineSpacing  float64
}

// Recorder appends run history for later analysis. Nothing is read back.
type Recorder interface {
	RecordWager(evt *WagerEvent) error
	RecordSnapshot(snap *Snapshot) error
	Close() error
}
