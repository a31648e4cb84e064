package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"BuffonBet/internal/needle"
	"BuffonBet/internal/recorder"
	"BuffonBet/internal/session"
	"BuffonBet/internal/wager"

	"github.com/shopspring/decimal"
)

type captureNotifier struct {
	sent []string
}

func (c *captureNotifier) Send(text string) error {
	c.sent = append(c.sent, text)
	return nil
}

type snapshotRecorder struct {
	recorder.NoopRecorder
	snaps []*recorder.Snapshot
}

func (r *snapshotRecorder) RecordSnapshot(s *recorder.Snapshot) error {
	r.snaps = append(r.snaps, s)
	return nil
}

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

func newTestScheduler(t *testing.T) (*Scheduler, *captureNotifier, *snapshotRecorder) {
	t.Helper()
	sess := session.New(session.Config{
		NeedleLength:   50,
		LineSpacing:    100,
		FieldWidth:     800,
		HouseEdge:      0.1,
		MaxOdds:        50,
		TargetDigits:   5,
		InitialBalance: decimal.NewFromInt(100),
		AfterFunc:      func(time.Duration, func()) wager.Timer { return idleTimer{} },
	}, needle.NewSequenceSource(0.05, 0.5), nil)
	n := &captureNotifier{}
	rec := &snapshotRecorder{}
	return NewScheduler(context.Background(), sess, n, rec, 10, 1000), n, rec
}

func TestTick_PausedDoesNothing(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	s.Tick()
	if c := s.Session.Counts(); c.Trials != 0 {
		t.Errorf("paused tick dropped needles: %+v", c)
	}
	s.Resume()
	s.Tick()
	if c := s.Session.Counts(); c.Trials != 10 {
		t.Errorf("expected one batch of 10, got %+v", c)
	}
}

func TestBetLifecycle(t *testing.T) {
	s, n, _ := newTestScheduler(t)

	reply := s.HandleCommand("/bet yes 10 20")
	if !strings.Contains(reply, "Wager placed") {
		t.Fatalf("expected placement, got %q", reply)
	}
	if !s.Running() {
		t.Error("placing a bet should start the simulation")
	}
	if reply := s.HandleCommand("/bet no 5"); !strings.Contains(reply, "already running") {
		t.Errorf("expected already running, got %q", reply)
	}

	s.Tick()
	if len(n.sent) != 0 {
		t.Fatalf("no result expected yet, got %q", n.sent)
	}
	s.Tick()
	if len(n.sent) != 1 || !strings.Contains(n.sent[0], "You lost") {
		t.Fatalf("expected a loss report, got %q", n.sent)
	}
	if s.Running() {
		t.Error("resolution should pause the simulation")
	}
	if b := s.Session.Fund().Balance; !b.Equal(decimal.NewFromInt(90)) {
		t.Errorf("expected balance 90, got %s", b)
	}
}

func TestCancelCommand(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	if reply := s.HandleCommand("/cancel"); !strings.Contains(reply, "No wager") {
		t.Errorf("expected no wager, got %q", reply)
	}
	s.HandleCommand("/bet n 25 500")
	reply := s.HandleCommand("/cancel")
	if !strings.Contains(reply, "Refunded: 25.00") || !strings.Contains(reply, "Balance: 100.00") {
		t.Errorf("unexpected cancel reply %q", reply)
	}
}

func TestHandleCommand_Replies(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"/bet", "Usage: /bet"},
		{"/bet maybe 10", "Usage: /bet"},
		{"/bet yes ten", "Usage: /bet"},
		{"/bet yes 150", "Insufficient balance"},
		{"/bet yes 0", "Invalid input"},
		{"/bet yes 10 -5", "Invalid input"},
		{"/quote 500 2", "2 digits within 500 trials"},
		{"/quote", "5 digits within 1000 trials"},
		{"/quote abc", "Usage: /quote"},
		{"/length", "Usage: /length"},
		{"/length 200", "Invalid input"},
		{"/length 40", "Needle length set to 40"},
		{"/status@BuffonBetBot", "Buffon's needle"},
		{"/fund", "Wallet"},
		{"hello", "BuffonBet commands"},
		{"   ", "BuffonBet commands"},
	}
	for _, tt := range tests {
		s, _, _ := newTestScheduler(t)
		if got := s.HandleCommand(tt.command); !strings.Contains(got, tt.want) {
			t.Errorf("%q: expected reply containing %q, got %q", tt.command, tt.want, got)
		}
	}
}

func TestLengthRefusedWhileBetting(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	s.HandleCommand("/bet no 5 100")
	if reply := s.HandleCommand("/length 30"); !strings.Contains(reply, "Finish or cancel") {
		t.Errorf("expected refusal, got %q", reply)
	}
}

func TestStartPauseReset(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	s.HandleCommand("/start")
	if !s.Running() {
		t.Fatal("expected running after /start")
	}
	s.Tick()
	if reply := s.HandleCommand("/pause"); !strings.Contains(reply, "Paused") || s.Running() {
		t.Errorf("expected paused, got %q", reply)
	}
	if reply := s.HandleCommand("/reset"); !strings.Contains(reply, "Trials: 0") {
		t.Errorf("expected cleared counts, got %q", reply)
	}
}

func TestSnapshotTask(t *testing.T) {
	s, _, rec := newTestScheduler(t)
	s.Resume()
	s.Tick()
	s.snapshotTask()
	if len(rec.snaps) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(rec.snaps))
	}
	if snap := rec.snaps[0]; snap.Estimate.Trials != 10 || snap.NeedleLength != 50 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestRegisterAll(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	if err := s.RegisterAll("@every 1s", "0 * * * * *"); err != nil {
		t.Errorf("valid schedules rejected: %v", err)
	}
	if err := s.RegisterAll("not a schedule", ""); err == nil {
		t.Error("expected an error for a bad tick schedule")
	}
	if len(s.Cron.Entries()) != 2 {
		t.Errorf("expected 2 entries, got %d", len(s.Cron.Entries()))
	}
}

func TestSpeedCommand(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	if reply := s.HandleCommand("/speed"); !strings.Contains(reply, "10 needles per tick") {
		t.Errorf("expected current speed, got %q", reply)
	}

	tests := []struct {
		command string
		want    string
	}{
		{"/speed fast", "Usage: /speed"},
		{"/speed 0", "Invalid input"},
		{"/speed -4", "Invalid input"},
		{"/speed 1000001", "Invalid input"},
		{"/speed 25", "25 needles per tick"},
	}
	for _, tt := range tests {
		if got := s.HandleCommand(tt.command); !strings.Contains(got, tt.want) {
			t.Errorf("%q: expected reply containing %q, got %q", tt.command, tt.want, got)
		}
	}
	if s.BatchSize() != 25 {
		t.Fatalf("expected batch size 25, got %d", s.BatchSize())
	}

	s.Resume()
	s.Tick()
	if c := s.Session.Counts(); c.Trials != 25 {
		t.Errorf("expected one batch of 25 after /speed, got %+v", c)
	}
}

func TestOnResolved_PausesAndReports(t *testing.T) {
	s, n, _ := newTestScheduler(t)
	s.HandleCommand("/bet no 10 5")
	s.Session.Advance(5)
	res, err := s.Session.ResolveWager()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	s.OnResolved(res)
	if s.Running() {
		t.Error("expected the simulation paused")
	}
	if len(n.sent) != 1 || !strings.Contains(n.sent[0], "You won") {
		t.Errorf("expected a win report, got %q", n.sent)
	}
}
