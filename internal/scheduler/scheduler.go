package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync/atomic"

	"BuffonBet/internal/model"
	"BuffonBet/internal/notifier"
	"BuffonBet/internal/recorder"
	"BuffonBet/internal/session"
	"BuffonBet/internal/wager"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// maxBatchSize bounds the needles dropped in one tick.
const maxBatchSize = 100_000

// Scheduler drives the simulation on a cron tick and turns chat commands
// into session calls.
type Scheduler struct {
	Cron                *cron.Cron
	Session             *session.Session
	Notifier            notifier.Notifier
	Recorder            recorder.Recorder
	Ctx                 context.Context
	DefaultTargetTrials int64

	running   atomic.Bool
	batchSize atomic.Int64
}

// NewScheduler creates a paused Scheduler.
func NewScheduler(ctx context.Context, sess *session.Session, n notifier.Notifier, rec recorder.Recorder, batchSize int, defaultTargetTrials int64) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if batchSize < 1 {
		batchSize = 1
	}
	s := &Scheduler{
		Cron:                cron.New(cron.WithSeconds()),
		Session:             sess,
		Notifier:            n,
		Recorder:            rec,
		Ctx:                 ctx,
		DefaultTargetTrials: defaultTargetTrials,
	}
	s.batchSize.Store(int64(batchSize))
	return s
}

// RegisterAll registers the simulation tick and the estimate snapshot.
// A tick still running when the next one fires is skipped.
func (s *Scheduler) RegisterAll(tickCron, snapshotCron string) error {
	tick := cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(cron.FuncJob(s.Tick))
	if _, err := s.Cron.AddJob(tickCron, tick); err != nil {
		return fmt.Errorf("register tick: %w", err)
	}
	if snapshotCron != "" {
		if _, err := s.Cron.AddFunc(snapshotCron, s.snapshotTask); err != nil {
			return fmt.Errorf("register snapshot: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// Resume lets ticks drop needles.
func (s *Scheduler) Resume() {
	if !s.running.Swap(true) {
		log.Println("[INFO] simulation running")
	}
}

// Pause stops dropping needles. The wager and the estimate are kept.
func (s *Scheduler) Pause() {
	if s.running.Swap(false) {
		log.Println("[INFO] simulation paused")
	}
}

// Running reports whether ticks drop needles.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// BatchSize is the number of needles dropped per tick.
func (s *Scheduler) BatchSize() int {
	return int(s.batchSize.Load())
}

// SetBatchSize changes the needles dropped per tick, effective from the next tick.
func (s *Scheduler) SetBatchSize(n int) error {
	if n < 1 || n > maxBatchSize {
		return fmt.Errorf("%w: speed must be in [1, %d]", wager.ErrInvalidInput, maxBatchSize)
	}
	s.batchSize.Store(int64(n))
	log.Printf("[INFO] batch size set to %d", n)
	return nil
}

// Tick drops one batch and checks the wager.
func (s *Scheduler) Tick() {
	if !s.Running() {
		return
	}
	_, res := s.Session.TickWager(s.BatchSize())
	if res != nil {
		s.OnResolved(*res)
	}
}

// OnResolved pauses the simulation and reports a freshly resolved wager.
// Every surface that can resolve a wager calls it once per resolution.
func (s *Scheduler) OnResolved(res model.WagerResult) {
	s.Pause()
	log.Printf("[INFO] wager %s resolved: won=%v payout=%s", res.WagerID, res.Won, res.Payout)
	s.trySend(notifier.FormatResult(res, s.Session.Fund()))
}

func (s *Scheduler) snapshotTask() {
	if err := s.Recorder.RecordSnapshot(s.Session.Snapshot()); err != nil {
		log.Printf("[ERROR] record snapshot: %v", err)
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText()
	}
	name := strings.ToLower(fields[0])
	// Group chats address bots as /cmd@BotName.
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i]
	}
	args := fields[1:]

	switch name {
	case "/start", "/run":
		s.Resume()
		return "▶️ Dropping needles"
	case "/pause", "/stop":
		s.Pause()
		return "⏸ Paused\n\n" + s.status()
	case "/reset":
		s.Pause()
		s.Session.ResetEstimator()
		return "🔄 Estimator reset\n\n" + s.status()
	case "/status":
		return s.status()
	case "/fund", "/wallet":
		return notifier.FormatFundStatus(s.Session.Fund())
	case "/quote":
		return s.quote(args)
	case "/bet":
		return s.bet(args)
	case "/cancel":
		refund, err := s.Session.CancelWager()
		if err != nil {
			return errorReply(err)
		}
		return notifier.FormatCancelled(refund, s.Session.Fund().Balance)
	case "/length":
		return s.length(args)
	case "/speed":
		return s.speed(args)
	default:
		return notifier.HelpText()
	}
}

func (s *Scheduler) status() string {
	return notifier.FormatStatus(s.Session.Report(), s.Running())
}

func (s *Scheduler) quote(args []string) string {
	trials := s.DefaultTargetTrials
	digits := s.Session.TargetDigits()
	if len(args) > 0 {
		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || n <= 0 {
			return "❌ Usage: /quote [trials] [digits]"
		}
		trials = n
	}
	if len(args) > 1 {
		d, err := strconv.Atoi(args[1])
		if err != nil || d < 0 {
			return "❌ Usage: /quote [trials] [digits]"
		}
		digits = d
	}
	q := s.Session.GetConvergenceQuote(trials, digits, s.Session.HouseEdge())
	return notifier.FormatQuote(q, decimal.NewFromInt(1))
}

func (s *Scheduler) bet(args []string) string {
	const usage = "❌ Usage: /bet yes|no &lt;stake&gt; [trials]"
	if len(args) < 2 {
		return usage
	}
	dir, ok := model.ParseDirection(args[0])
	if !ok {
		return usage
	}
	stake, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return usage
	}
	trials := s.DefaultTargetTrials
	if len(args) > 2 {
		n, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return usage
		}
		trials = n
	}

	w, err := s.Session.PlaceWager(dir, stake, trials)
	if err != nil {
		return errorReply(err)
	}
	s.Resume()
	return notifier.FormatPlaced(w, s.Session.Fund().Balance)
}

func (s *Scheduler) length(args []string) string {
	if len(args) != 1 {
		return "❌ Usage: /length &lt;L&gt;"
	}
	L, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return "❌ Usage: /length &lt;L&gt;"
	}
	if err := s.Session.SetNeedleLength(L); err != nil {
		return errorReply(err)
	}
	return fmt.Sprintf("📏 Needle length set to %g, estimator reset\n\n%s", L, s.status())
}

func (s *Scheduler) speed(args []string) string {
	if len(args) == 0 {
		return fmt.Sprintf("⏩ %d needles per tick", s.BatchSize())
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return "❌ Usage: /speed &lt;needles per tick&gt;"
	}
	if err := s.SetBatchSize(n); err != nil {
		return errorReply(err)
	}
	return fmt.Sprintf("⏩ %d needles per tick", n)
}

func errorReply(err error) string {
	switch {
	case errors.Is(err, wager.ErrInsufficientBalance):
		return "❌ Insufficient balance"
	case errors.Is(err, wager.ErrAlreadyActive):
		return "❌ A wager is already running"
	case errors.Is(err, wager.ErrNoActiveWager):
		return "❌ No wager is running"
	case errors.Is(err, session.ErrBusy):
		return "❌ Finish or cancel the running wager first"
	case errors.Is(err, wager.ErrInvalidInput):
		return fmt.Sprintf("❌ Invalid input (%v)", err)
	default:
		return fmt.Sprintf("❌ %v", err)
	}
}

// retrySender is implemented by notifiers that can back off on failure.
type retrySender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	var err error
	if rs, ok := s.Notifier.(retrySender); ok {
		err = rs.SendWithRetry(s.Ctx, text, 3)
	} else {
		err = s.Notifier.Send(text)
	}
	if err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
