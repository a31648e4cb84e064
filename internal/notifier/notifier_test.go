package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"BuffonBet/internal/model"

	"github.com/shopspring/decimal"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<b>Wallet</b>", "Wallet"},
		{"a &lt;stake&gt; b", "a <stake> b"},
		{"π ≈ 3.14 < 4", "π ≈ 3.14 < 4"},
	}
	for _, tt := range tests {
		if got := PlainText(tt.in); got != tt.want {
			t.Errorf("PlainText(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestFormatStatus(t *testing.T) {
	r := &model.SessionReport{
		Estimate:     model.Estimate{Trials: 1000, Crossings: 300, PiEstimate: 10.0 / 3, ErrorPercent: 6.1, Valid: true},
		AccuracyRank: 2,
		NeedleLength: 50,
		LineSpacing:  100,
		Fund:         model.FundState{InitialBalance: decimal.NewFromInt(100), Balance: decimal.NewFromInt(90), GamesPlayed: 1},
		Wager:        &model.WagerStatus{Phase: model.PhaseActive, ProgressPercent: 50, TrialsSinceStart: 250},
	}
	got := FormatStatus(r, true)
	for _, want := range []string{"running", "Trials: 1000", "3.333333", "★★☆☆☆", "Balance: 90.00", "Games won: 0/1", "[█████░░░░░] 50%"} {
		if !strings.Contains(got, want) {
			t.Errorf("status missing %q:\n%s", want, got)
		}
	}

	r.Estimate = model.Estimate{Trials: 3}
	r.Wager = nil
	got = FormatStatus(r, false)
	if !strings.Contains(got, "π estimate: n/a") || !strings.Contains(got, "paused") {
		t.Errorf("expected empty estimate while paused:\n%s", got)
	}
	if strings.Contains(got, "Wager") {
		t.Errorf("no wager section expected:\n%s", got)
	}
}

func TestFormatQuote(t *testing.T) {
	q := model.ConvergenceQuote{FutureTrials: 500, TargetDigits: 2, ProbabilityYes: 0.25, ProbabilityNo: 0.75, OddsYes: 3.7, OddsNo: 1.3}
	got := FormatQuote(q, decimal.NewFromInt(10))
	for _, want := range []string{"2 digits within 500 trials", "p=25.00%", "pays 37.00", "pays 13.00"} {
		if !strings.Contains(got, want) {
			t.Errorf("quote missing %q:\n%s", want, got)
		}
	}
}

func TestFormatResult(t *testing.T) {
	f := model.FundState{InitialBalance: decimal.NewFromInt(100), Balance: decimal.NewFromInt(109), GamesWon: 1, GamesPlayed: 1}
	won := model.WagerResult{Direction: model.DirectionNo, Won: true, Stake: decimal.NewFromInt(10), Payout: decimal.NewFromInt(19), LockedOdds: 1.9}
	if got := FormatResult(won, f); !strings.Contains(got, "You won") || !strings.Contains(got, "Payout: 19.00") {
		t.Errorf("unexpected win message:\n%s", got)
	}
	lost := won
	lost.Won = false
	if got := FormatResult(lost, f); !strings.Contains(got, "You lost") || !strings.Contains(got, "Stake lost: 10.00") {
		t.Errorf("unexpected loss message:\n%s", got)
	}
}

func TestRankStarsClamps(t *testing.T) {
	if got := rankStars(9); got != "★★★★★" {
		t.Errorf("expected 5 stars, got %q", got)
	}
	if got := rankStars(-2); got != "☆☆☆☆☆" {
		t.Errorf("expected 0 stars, got %q", got)
	}
}

func TestConsoleNotifier_ReadCommands(t *testing.T) {
	var out bytes.Buffer
	c := NewConsoleNotifier(&out)
	in := strings.NewReader("/status\n\n  /bet yes 10  \n")

	var got []string
	c.ReadCommands(context.Background(), in, func(cmd string) string {
		got = append(got, cmd)
		return "<b>ok</b> " + cmd
	})

	if len(got) != 2 || got[0] != "/status" || got[1] != "/bet yes 10" {
		t.Errorf("unexpected commands %q", got)
	}
	if out.String() != "ok /status\nok /bet yes 10\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

type telegramStub struct {
	mu    sync.Mutex
	sent  []map[string]interface{}
	polls int
}

func (s *telegramStub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/botTOKEN/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		s.mu.Lock()
		s.sent = append(s.sent, payload)
		s.mu.Unlock()
		fmt.Fprint(w, `{"ok":true}`)
	})
	mux.HandleFunc("/botTOKEN/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.polls++
		s.mu.Unlock()
		fmt.Fprint(w, `{"ok":true,"result":[
			{"update_id":1,"message":{"text":"/status","chat":{"id":999}}},
			{"update_id":2,"message":{"message_id":7,"text":" /quote ","chat":{"id":42}}}
		]}`)
	})
	return mux
}

func TestTelegramNotifier_Send(t *testing.T) {
	stub := &telegramStub{}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	if err := tn.Send("<b>hi</b>"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(stub.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(stub.sent))
	}
	msg := stub.sent[0]
	if msg["chat_id"] != "42" || msg["text"] != "<b>hi</b>" || msg["parse_mode"] != "HTML" {
		t.Errorf("unexpected payload %v", msg)
	}
}

func TestTelegramNotifier_SendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	err := tn.Send("hi")
	if err == nil || !strings.Contains(err.Error(), "status 401") {
		t.Errorf("expected a 401 error, got %v", err)
	}
}

func TestTelegramNotifier_PollingFiltersChat(t *testing.T) {
	stub := &telegramStub{}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var handled []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		tn.StartPolling(ctx, func(cmd string) string {
			handled = append(handled, cmd)
			cancel()
			return "reply to " + cmd
		})
	}()
	<-done

	if len(handled) != 1 || handled[0] != "/quote" {
		t.Errorf("expected only the configured chat's command, got %q", handled)
	}
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if len(stub.sent) != 1 || stub.sent[0]["text"] != "reply to /quote" {
		t.Fatalf("expected one reply, got %v", stub.sent)
	}
	if got := stub.sent[0]["reply_to_message_id"]; got != float64(7) {
		t.Errorf("expected reply threaded under message 7, got %v", got)
	}
	if got := stub.sent[0]["chat_id"]; got != "42" {
		t.Errorf("expected reply to chat 42, got %v", got)
	}
}

func TestTelegramNotifier_APIErrorDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	err := tn.Send("hi")
	if err == nil || !strings.Contains(err.Error(), "status 400: Bad Request: chat not found") {
		t.Errorf("expected the API description, got %v", err)
	}
}

func TestTelegramNotifier_SendWithRetryStopsOnCancel(t *testing.T) {
	var calls int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tn.SendWithRetry(ctx, "hi", 3); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("expected a single attempt before the cancelled backoff, got %d", calls)
	}
}

func TestTruncateMessage(t *testing.T) {
	short := "<b>ok</b>"
	if got := truncateMessage(short); got != short {
		t.Errorf("short message changed: %q", got)
	}

	long := strings.Repeat("line of status text\n", 400)
	got := truncateMessage(long)
	if len(got) > maxMessageLen {
		t.Errorf("expected at most %d bytes, got %d", maxMessageLen, len(got))
	}
	if !strings.HasSuffix(got, "line of status text\n…") {
		t.Errorf("expected a cut on a line boundary, got tail %q", got[len(got)-30:])
	}
}
