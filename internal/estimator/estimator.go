package estimator

import (
	"math"

	"BuffonBet/internal/model"
)

// Counts is a snapshot of the estimator counters.
type Counts struct {
	Trials    int64
	Crossings int64
}

// State accumulates needle trials for one needle/spacing geometry.
// Not safe for concurrent use; callers serialize access.
type State struct {
	needleLength float64
	lineSpacing  float64
	trials       int64
	crossings    int64
}

// New creates an empty State for needle length L and line spacing D.
func New(needleLength, lineSpacing float64) *State {
	return &State{needleLength: needleLength, lineSpacing: lineSpacing}
}

// Record appends one trial. Counters only ever grow until Reset.
func (s *State) Record(t model.Trial) {
	s.trials++
	if t.Crossed {
		s.crossings++
	}
}

// Counts returns the raw counters.
func (s *State) Counts() Counts {
	return Counts{Trials: s.trials, Crossings: s.crossings}
}

// Estimate derives the π estimate and its relative error.
func (s *State) Estimate() model.Estimate {
	est := model.Estimate{Trials: s.trials, Crossings: s.crossings}
	if s.crossings == 0 || s.trials == 0 {
		return est
	}
	est.PiEstimate = PiEstimate(s.needleLength, s.lineSpacing, s.trials, s.crossings)
	est.ErrorPercent = ErrorPercent(est.PiEstimate)
	est.Valid = true
	return est
}

// Reset zeroes both counters.
func (s *State) Reset() {
	s.trials = 0
	s.crossings = 0
}

// SetGeometry changes L and D. Counts gathered under the old geometry are
// meaningless for the new one, so the counters are reset too.
func (s *State) SetGeometry(needleLength, lineSpacing float64) {
	s.needleLength = needleLength
	s.lineSpacing = lineSpacing
	s.Reset()
}

func (s *State) NeedleLength() float64 { return s.needleLength }
func (s *State) LineSpacing() float64  { return s.lineSpacing }

// PiEstimate applies Buffon's formula π ≈ 2LN/(DC). Returns 0 when C is 0.
func PiEstimate(needleLength, lineSpacing float64, trials, crossings int64) float64 {
	if crossings <= 0 || lineSpacing == 0 {
		return 0
	}
	return (2 * needleLength * float64(trials)) / (lineSpacing * float64(crossings))
}

// ErrorPercent is |estimate − π| / π · 100.
func ErrorPercent(piEstimate float64) float64 {
	return math.Abs(piEstimate-math.Pi) / math.Pi * 100
}
