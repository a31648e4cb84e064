package session

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"BuffonBet/internal/calculator"
	"BuffonBet/internal/estimator"
	"BuffonBet/internal/fund"
	"BuffonBet/internal/model"
	"BuffonBet/internal/needle"
	"BuffonBet/internal/pricing"
	"BuffonBet/internal/recorder"
	"BuffonBet/internal/wager"

	"github.com/shopspring/decimal"
)

// ErrBusy is returned when the geometry changes while a wager is running.
var ErrBusy = errors.New("a wager is running")

// Config is the validated simulation and betting setup of one session.
type Config struct {
	NeedleLength   float64
	LineSpacing    float64
	FieldWidth     float64
	HouseEdge      float64
	MaxOdds        float64
	TargetDigits   int
	InitialBalance decimal.Decimal
	DisplayDelay   time.Duration

	// AfterFunc overrides the display timer; nil uses time.AfterFunc.
	AfterFunc wager.AfterFunc
}

// Session owns the estimator, the wallet and the wager slot of one run.
// Every method is safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	generator *needle.Generator
	estimator *estimator.State
	pricing   *pricing.Model
	fund      *fund.Manager
	wagers    *wager.Manager
}

// New builds a session. A nil src uses the system random source and a nil
// rec records nothing.
func New(cfg Config, src needle.Source, rec recorder.Recorder) *Session {
	pm := pricing.NewModel(cfg.NeedleLength, cfg.LineSpacing, cfg.HouseEdge, cfg.MaxOdds)
	fm := fund.NewManager(cfg.InitialBalance)
	return &Session{
		generator: needle.NewGenerator(src, cfg.FieldWidth),
		estimator: estimator.New(cfg.NeedleLength, cfg.LineSpacing),
		pricing:   pm,
		fund:      fm,
		wagers: wager.NewManager(fm, pm, rec, wager.Config{
			TargetDigits: cfg.TargetDigits,
			DisplayDelay: cfg.DisplayDelay,
			AfterFunc:    cfg.AfterFunc,
		}),
	}
}

// GenerateTrial drops one needle with the session geometry without recording it.
func (s *Session) GenerateTrial() model.Trial {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generator.Generate(s.estimator.NeedleLength(), s.estimator.LineSpacing())
}

// RecordTrial adds a trial to the running counts.
func (s *Session) RecordTrial(t model.Trial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estimator.Record(t)
}

// Advance drops and records k needles and returns them in drop order.
func (s *Session) Advance(k int) []model.Trial {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceLocked(k)
}

func (s *Session) advanceLocked(k int) []model.Trial {
	if k <= 0 {
		return nil
	}
	L, D := s.estimator.NeedleLength(), s.estimator.LineSpacing()
	trials := make([]model.Trial, 0, k)
	for i := 0; i < k; i++ {
		t := s.generator.Generate(L, D)
		s.estimator.Record(t)
		trials = append(trials, t)
	}
	return trials
}

// GetEstimate returns the current π estimate.
func (s *Session) GetEstimate() model.Estimate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estimator.Estimate()
}

// Counts returns the raw trial and crossing counters.
func (s *Session) Counts() estimator.Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estimator.Counts()
}

// ResetEstimator zeroes the counts. A running wager keeps going and counts
// its progress from the reset.
func (s *Session) ResetEstimator() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estimator.Reset()
	s.wagers.Rebase()
}

// GetAccuracyRank classifies a π estimate into 0..5 matching digits.
func (s *Session) GetAccuracyRank(piEstimate float64) int {
	return calculator.AccuracyRank(piEstimate)
}

// GetConvergenceQuote prices reaching targetDigits within futureTrials more
// drops from the current counts, using houseEdge instead of the configured edge.
func (s *Session) GetConvergenceQuote(futureTrials int64, targetDigits int, houseEdge float64) model.ConvergenceQuote {
	s.mu.Lock()
	defer s.mu.Unlock()
	pm := *s.pricing
	pm.HouseEdge = houseEdge
	return pm.Quote(s.estimator.Counts(), futureTrials, targetDigits)
}

// Quote prices a bet the way PlaceWager would, with the configured edge and target.
func (s *Session) Quote(futureTrials int64) model.ConvergenceQuote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pricing.Quote(s.estimator.Counts(), futureTrials, s.wagers.TargetDigits())
}

// PlaceWager opens a wager on the configured target digits.
func (s *Session) PlaceWager(dir model.Direction, stake float64, targetTrials int64) (model.Wager, error) {
	if math.IsNaN(stake) || math.IsInf(stake, 0) || stake <= 0 {
		return model.Wager{}, wager.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wagers.Place(dir, decimal.NewFromFloat(stake), targetTrials, s.estimator.Counts())
}

// TickWager advances k trials and then checks the running wager, the order a
// driving loop uses once per tick. The result is non-nil on the tick that
// resolved the wager.
func (s *Session) TickWager(k int) (model.WagerStatus, *model.WagerResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked(k)
	return s.wagers.CheckStatus(s.estimator.Counts(), s.estimator.Estimate())
}

// GetWagerStatus returns the progress of the wager in the slot.
func (s *Session) GetWagerStatus() model.WagerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wagers.Status(s.estimator.Counts(), s.estimator.Estimate())
}

// ActiveWager returns the wager in the slot, resolved or not.
func (s *Session) ActiveWager() (model.Wager, bool) {
	return s.wagers.Active()
}

// LastResult returns the resolution still on display, if any.
func (s *Session) LastResult() (model.WagerResult, bool) {
	return s.wagers.LastResult()
}

// CancelWager refunds the running wager and returns the refunded stake.
func (s *Session) CancelWager() (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wagers.Cancel()
}

// ResolveWager settles the running wager against the current estimate.
func (s *Session) ResolveWager() (model.WagerResult, error) {
	res, _, err := s.SettleWager()
	return res, err
}

// SettleWager is ResolveWager that also reports whether this call resolved
// the wager, so callers react to a resolution exactly once.
func (s *Session) SettleWager() (model.WagerResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wagers.Settle(s.estimator.Counts(), s.estimator.Estimate())
}

// Fund returns the wallet state.
func (s *Session) Fund() model.FundState {
	return s.fund.GetState()
}

// TargetDigits is the accuracy a YES wager needs.
func (s *Session) TargetDigits() int {
	return s.wagers.TargetDigits()
}

// HouseEdge is the configured share of the fair excess kept by the house.
func (s *Session) HouseEdge() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pricing.HouseEdge
}

// Geometry returns the needle length and line spacing in use.
func (s *Session) Geometry() (needleLength, lineSpacing float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estimator.NeedleLength(), s.estimator.LineSpacing()
}

// SetNeedleLength changes L and starts a fresh run, since old counts were
// gathered with another needle. Refused while a wager is running.
func (s *Session) SetNeedleLength(length float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	D := s.estimator.LineSpacing()
	if math.IsNaN(length) || math.IsInf(length, 0) || length <= 0 || length > D {
		return fmt.Errorf("%w: needle length must be in (0, %g]", wager.ErrInvalidInput, D)
	}
	if s.wagers.Busy() {
		return ErrBusy
	}
	s.estimator.SetGeometry(length, D)
	s.pricing.NeedleLength = length
	return nil
}

// Report summarizes the session for the shutdown report and the status views.
func (s *Session) Report() *model.SessionReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	est := s.estimator.Estimate()
	r := &model.SessionReport{
		Estimate:     est,
		NeedleLength: s.estimator.NeedleLength(),
		LineSpacing:  s.estimator.LineSpacing(),
		Fund:         s.fund.GetState(),
		GeneratedAt:  time.Now(),
	}
	if est.Valid {
		r.AccuracyRank = calculator.AccuracyRank(est.PiEstimate)
	}
	if _, ok := s.wagers.Active(); ok {
		st := s.wagers.Status(s.estimator.Counts(), est)
		r.Wager = &st
	}
	if res, ok := s.wagers.LastResult(); ok {
		r.LastResult = &res
	}
	return r
}

// Snapshot samples the estimate for the history recorder.
func (s *Session) Snapshot() *recorder.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	est := s.estimator.Estimate()
	snap := &recorder.Snapshot{
		Estimate:     &est,
		NeedleLength: s.estimator.NeedleLength(),
		LineSpacing:  s.estimator.LineSpacing(),
	}
	if est.Valid {
		snap.AccuracyRank = calculator.AccuracyRank(est.PiEstimate)
	}
	return snap
}
