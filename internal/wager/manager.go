package wager

import (
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"BuffonBet/internal/calculator"
	"BuffonBet/internal/estimator"
	"BuffonBet/internal/fund"
	"BuffonBet/internal/model"
	"BuffonBet/internal/pricing"
	"BuffonBet/internal/recorder"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientBalance = fund.ErrInsufficientBalance
	ErrAlreadyActive       = errors.New("a wager is already active")
	ErrNoActiveWager       = errors.New("no active wager")
)

// DefaultDisplayDelay is how long a resolved wager stays visible before the slot clears.
const DefaultDisplayDelay = 5 * time.Second

// Timer is a pending single-shot callback.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Config tunes a Manager. Zero values select defaults.
type Config struct {
	TargetDigits int
	DisplayDelay time.Duration
	AfterFunc    AfterFunc
	Now          func() time.Time
}

// Manager owns the single wager slot: NONE -> ACTIVE -> RESOLVED -> NONE,
// with Cancel short-circuiting ACTIVE -> NONE.
type Manager struct {
	mu           sync.Mutex
	fund         *fund.Manager
	pricing      *pricing.Model
	recorder     recorder.Recorder
	targetDigits int
	displayDelay time.Duration
	afterFunc    AfterFunc
	now          func() time.Time

	active     *model.Wager
	result     *model.WagerResult
	clearTimer Timer
}

// NewManager creates a Manager settling against fm and pricing with pm.
func NewManager(fm *fund.Manager, pm *pricing.Model, rec recorder.Recorder, cfg Config) *Manager {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if cfg.DisplayDelay <= 0 {
		cfg.DisplayDelay = DefaultDisplayDelay
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = stdAfterFunc
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		fund:         fm,
		pricing:      pm,
		recorder:     rec,
		targetDigits: cfg.TargetDigits,
		displayDelay: cfg.DisplayDelay,
		afterFunc:    cfg.AfterFunc,
		now:          cfg.Now,
	}
}

// TargetDigits is the accuracy a YES bet needs to win.
func (m *Manager) TargetDigits() int { return m.targetDigits }

// Place debits stake and opens a wager priced from a fresh quote over targetTrials.
// A resolved wager still on display is replaced and its pending clear is stopped.
func (m *Manager) Place(dir model.Direction, stake decimal.Decimal, targetTrials int64, counts estimator.Counts) (model.Wager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !dir.Valid() || stake.Sign() <= 0 || targetTrials <= 0 {
		return model.Wager{}, ErrInvalidInput
	}
	if m.active != nil && !m.active.IsResolved {
		return model.Wager{}, ErrAlreadyActive
	}

	quote := m.pricing.Quote(counts, targetTrials, m.targetDigits)
	probability, odds := quote.For(dir)
	if math.IsNaN(odds) || odds < 1 {
		return model.Wager{}, ErrInvalidInput
	}

	if err := m.fund.Debit(stake); err != nil {
		return model.Wager{}, err
	}

	m.stopClearTimer()
	m.result = nil
	m.active = &model.Wager{
		ID:                 uuid.NewString(),
		Direction:          dir,
		Stake:              stake,
		TargetTrials:       targetTrials,
		TargetDigits:       m.targetDigits,
		LockedOdds:         odds,
		LockedProbability:  probability,
		StartingTrialCount: counts.Trials,
		PlacedAt:           m.now(),
	}
	return *m.active, nil
}

// CheckStatus runs after every batch of trials. It latches convergence and
// resolves the wager once its trial budget is spent. The result is non-nil
// only on the call that resolved the wager.
func (m *Manager) CheckStatus(counts estimator.Counts, est model.Estimate) (model.WagerStatus, *model.WagerResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.active
	if w == nil || w.IsResolved {
		return m.statusLocked(counts, est), nil
	}

	if est.Valid && calculator.AccuracyRank(est.PiEstimate) >= w.TargetDigits {
		w.HasConverged = true
	}

	var res *model.WagerResult
	if counts.Trials-w.StartingTrialCount >= w.TargetTrials {
		r := m.resolveLocked(counts, est)
		res = &r
	}
	return m.statusLocked(counts, est), res
}

// Resolve settles the active wager now. Resolving an already resolved wager
// returns the same result.
func (m *Manager) Resolve(counts estimator.Counts, est model.Estimate) (model.WagerResult, error) {
	res, _, err := m.Settle(counts, est)
	return res, err
}

// Settle is Resolve that also reports whether this call did the resolving.
func (m *Manager) Settle(counts estimator.Counts, est model.Estimate) (model.WagerResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return model.WagerResult{}, false, ErrNoActiveWager
	}
	if m.active.IsResolved && m.result != nil {
		return *m.result, false, nil
	}
	return m.resolveLocked(counts, est), true, nil
}

func (m *Manager) resolveLocked(counts estimator.Counts, est model.Estimate) model.WagerResult {
	w := m.active
	w.IsResolved = true

	won := (w.Direction == model.DirectionYes) == w.HasConverged
	payout := decimal.Zero
	if won {
		payout = w.PotentialPayout()
	}
	m.fund.Settle(won, payout)

	rank := 0
	if est.Valid {
		rank = calculator.AccuracyRank(est.PiEstimate)
	}
	res := model.WagerResult{
		WagerID:           w.ID,
		Direction:         w.Direction,
		Won:               won,
		Stake:             w.Stake,
		Payout:            payout,
		LockedOdds:        w.LockedOdds,
		LockedProbability: w.LockedProbability,
		TargetTrials:      w.TargetTrials,
		TargetDigits:      w.TargetDigits,
		HasConverged:      w.HasConverged,
		FinalEstimate:     est.PiEstimate,
		FinalAccuracyRank: rank,
		FinalTrials:       counts.Trials,
		ResolvedAt:        m.now(),
	}
	m.result = &res

	fs := m.fund.GetState()
	if err := m.recorder.RecordWager(&recorder.WagerEvent{Result: &res, Fund: &fs}); err != nil {
		log.Printf("[ERROR] record wager: %v", err)
	}

	id := w.ID
	m.stopClearTimer()
	m.clearTimer = m.afterFunc(m.displayDelay, func() { m.clear(id) })
	return res
}

// clear empties the slot after the display window, unless a newer wager took it.
func (m *Manager) clear(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil || m.active.ID != id || !m.active.IsResolved {
		return
	}
	m.active = nil
	m.result = nil
	m.clearTimer = nil
}

// Cancel refunds the stake of an unresolved wager and empties the slot.
func (m *Manager) Cancel() (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil || m.active.IsResolved {
		return decimal.Zero, ErrNoActiveWager
	}
	stake := m.active.Stake
	m.fund.Refund(stake)
	m.stopClearTimer()
	m.active = nil
	m.result = nil
	return stake, nil
}

// Rebase restarts progress counting from zero after the estimator was reset.
func (m *Manager) Rebase() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && !m.active.IsResolved {
		m.active.StartingTrialCount = 0
	}
}

// Status returns the progress view without changing anything.
func (m *Manager) Status(counts estimator.Counts, est model.Estimate) model.WagerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked(counts, est)
}

func (m *Manager) statusLocked(counts estimator.Counts, est model.Estimate) model.WagerStatus {
	st := model.WagerStatus{Phase: model.PhaseNone}
	if est.Valid {
		st.CurrentRank = calculator.AccuracyRank(est.PiEstimate)
	}
	w := m.active
	if w == nil {
		return st
	}

	st.WagerID = w.ID
	st.HasConverged = w.HasConverged
	st.IsResolved = w.IsResolved
	st.Phase = model.PhaseActive
	if w.IsResolved {
		st.Phase = model.PhaseResolved
	}

	since := counts.Trials - w.StartingTrialCount
	if since < 0 {
		since = 0
	}
	if w.IsResolved && m.result != nil {
		since = m.result.FinalTrials - w.StartingTrialCount
	}
	st.TrialsSinceStart = since
	st.ProgressPercent = math.Min(100, float64(since)/float64(w.TargetTrials)*100)
	return st
}

// Active returns a copy of the wager in the slot, if any.
func (m *Manager) Active() (model.Wager, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return model.Wager{}, false
	}
	return *m.active, true
}

// LastResult returns the result on display, if any.
func (m *Manager) LastResult() (model.WagerResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.result == nil {
		return model.WagerResult{}, false
	}
	return *m.result, true
}

// Busy reports whether an unresolved wager is running.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil && !m.active.IsResolved
}

func (m *Manager) stopClearTimer() {
	if m.clearTimer != nil {
		m.clearTimer.Stop()
		m.clearTimer = nil
	}
}
