package notifier

import (
	"fmt"
	"math"
	"strings"

	"BuffonBet/internal/calculator"
	"BuffonBet/internal/model"

	"github.com/shopspring/decimal"
)

// FormatStatus renders the running estimate, the wallet and any wager on display.
func FormatStatus(r *model.SessionReport, running bool) string {
	var b strings.Builder

	state := "⏸ paused"
	if running {
		state = "▶️ running"
	}
	b.WriteString(fmt.Sprintf("🪡 <b>Buffon's needle</b> | %s\n\n", state))
	b.WriteString(fmt.Sprintf("Needle L: %g | Spacing D: %g\n", r.NeedleLength, r.LineSpacing))
	b.WriteString(fmt.Sprintf("Trials: %d | Crossings: %d\n", r.Estimate.Trials, r.Estimate.Crossings))
	b.WriteString(fmt.Sprintf("π estimate: %s\n", formatPi(r.Estimate)))
	b.WriteString(fmt.Sprintf("Error: %.4f%%\n", r.Estimate.ErrorPercent))
	b.WriteString(fmt.Sprintf("Accuracy: %s (%d/%d digits)\n\n", rankStars(r.AccuracyRank), r.AccuracyRank, calculator.MaxAccuracyRank))

	b.WriteString(fundLines(r.Fund))

	if r.Wager != nil && r.Wager.Phase != model.PhaseNone {
		b.WriteString("\n🎲 <b>Wager</b>\n")
		b.WriteString(fmt.Sprintf("Phase: %s\n", r.Wager.Phase))
		b.WriteString(fmt.Sprintf("Progress: %s %.0f%% (%d trials)\n",
			progressBar(r.Wager.ProgressPercent), r.Wager.ProgressPercent, r.Wager.TrialsSinceStart))
		b.WriteString(fmt.Sprintf("Converged: %s\n", yesNo(r.Wager.HasConverged)))
	}
	return b.String()
}

// FormatQuote renders both sides of a convergence bet and what stake would pay.
func FormatQuote(q model.ConvergenceQuote, stake decimal.Decimal) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>Quote</b> | %d digits within %d trials\n\n", q.TargetDigits, q.FutureTrials))
	b.WriteString(fmt.Sprintf("YES: p=%.2f%% odds %.2fx → pays %s\n",
		q.ProbabilityYes*100, q.OddsYes, stake.Mul(decimal.NewFromFloat(q.OddsYes)).StringFixed(2)))
	b.WriteString(fmt.Sprintf("NO:  p=%.2f%% odds %.2fx → pays %s\n",
		q.ProbabilityNo*100, q.OddsNo, stake.Mul(decimal.NewFromFloat(q.OddsNo)).StringFixed(2)))
	b.WriteString(fmt.Sprintf("(stake %s)", stake.StringFixed(2)))
	return b.String()
}

// FormatPlaced confirms a new wager.
func FormatPlaced(w model.Wager, balance decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("✅ <b>Wager placed</b>\n\n")
	b.WriteString(fmt.Sprintf("%s that π reaches %d digits within %d trials\n", w.Direction, w.TargetDigits, w.TargetTrials))
	b.WriteString(fmt.Sprintf("Stake: %s @ %.2fx (p=%.2f%%)\n", w.Stake.StringFixed(2), w.LockedOdds, w.LockedProbability*100))
	b.WriteString(fmt.Sprintf("Potential payout: %s\n", w.PotentialPayout().StringFixed(2)))
	b.WriteString(fmt.Sprintf("Balance: %s", balance.StringFixed(2)))
	return b.String()
}

// FormatResult reports a resolved wager.
func FormatResult(r model.WagerResult, f model.FundState) string {
	var b strings.Builder
	if r.Won {
		b.WriteString("🏆 <b>You won!</b>\n\n")
	} else {
		b.WriteString("💥 <b>You lost</b>\n\n")
	}
	b.WriteString(fmt.Sprintf("Bet: %s on %d digits in %d trials\n", r.Direction, r.TargetDigits, r.TargetTrials))
	b.WriteString(fmt.Sprintf("Converged: %s\n", yesNo(r.HasConverged)))
	b.WriteString(fmt.Sprintf("Final π: %.6f (%d digits, %d trials)\n", r.FinalEstimate, r.FinalAccuracyRank, r.FinalTrials))
	if r.Won {
		b.WriteString(fmt.Sprintf("Payout: %s (stake %s @ %.2fx)\n", r.Payout.StringFixed(2), r.Stake.StringFixed(2), r.LockedOdds))
	} else {
		b.WriteString(fmt.Sprintf("Stake lost: %s\n", r.Stake.StringFixed(2)))
	}
	b.WriteString("\n")
	b.WriteString(fundLines(f))
	return b.String()
}

// FormatCancelled confirms a refund.
func FormatCancelled(refund, balance decimal.Decimal) string {
	return fmt.Sprintf("↩️ <b>Wager cancelled</b>\n\nRefunded: %s\nBalance: %s", refund.StringFixed(2), balance.StringFixed(2))
}

// FormatFundStatus formats the wallet for display.
func FormatFundStatus(f model.FundState) string {
	return "📦 <b>Wallet</b>\n\n" + fundLines(f)
}

// HelpText lists the supported commands.
func HelpText() string {
	return `🪡 <b>BuffonBet commands</b>

/start - start dropping needles
/pause - pause the simulation
/reset - pause and clear the estimate
/status - estimate, accuracy and wallet
/quote [trials] [digits] - price a bet
/bet yes|no &lt;stake&gt; [trials] - place a bet
/cancel - cancel the running bet
/length &lt;L&gt; - change the needle length
/speed [n] - needles dropped per tick
/help - this message`
}

func fundLines(f model.FundState) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Balance: %s (started %s)\n", f.Balance.StringFixed(2), f.InitialBalance.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Games won: %d/%d\n", f.GamesWon, f.GamesPlayed))
	return b.String()
}

func formatPi(e model.Estimate) string {
	if !e.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.6f", e.PiEstimate)
}

func rankStars(rank int) string {
	rank = max(0, min(rank, calculator.MaxAccuracyRank))
	return strings.Repeat("★", rank) + strings.Repeat("☆", calculator.MaxAccuracyRank-rank)
}

func progressBar(percent float64) string {
	const width = 10
	if math.IsNaN(percent) {
		percent = 0
	}
	filled := int(math.Round(math.Max(0, math.Min(percent, 100)) / 100 * width))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
