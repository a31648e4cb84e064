package main

import (
	"fmt"
	"io"
	"math"

	"BuffonBet/internal/calculator"
	"BuffonBet/internal/config"
	"BuffonBet/internal/estimator"
	"BuffonBet/internal/needle"

	"github.com/cheggaaa/pb/v3"
)

const calibrationStep = 10_000

// runCalibration drops n needles without the betting layer and compares the
// crossing rate with 2L/(πD).
func runCalibration(w io.Writer, cfg *config.Config, src needle.Source, n int64) {
	L, D := cfg.Simulation.NeedleLength, cfg.Simulation.LineSpacing
	gen := needle.NewGenerator(src, cfg.Simulation.FieldWidth)
	est := estimator.New(L, D)

	bar := pb.New64(n).SetWriter(w).Start()
	for done := int64(0); done < n; {
		step := min(int64(calibrationStep), n-done)
		for i := int64(0); i < step; i++ {
			est.Record(gen.Generate(L, D))
		}
		done += step
		bar.Add64(step)
	}
	bar.Finish()

	c := est.Counts()
	e := est.Estimate()
	rate := float64(c.Crossings) / float64(c.Trials)
	expected := needle.CrossingProbability(L, D)

	fmt.Fprintf(w, "needle L=%g spacing D=%g trials=%d crossings=%d\n", L, D, c.Trials, c.Crossings)
	fmt.Fprintf(w, "crossing rate %.6f (expected %.6f, diff %+.6f)\n", rate, expected, rate-expected)
	if e.Valid {
		fmt.Fprintf(w, "π estimate %.6f error %.4f%% accuracy %d digits (|Δ|=%.2e)\n",
			e.PiEstimate, e.ErrorPercent, calculator.AccuracyRank(e.PiEstimate), math.Abs(e.PiEstimate-math.Pi))
	} else {
		fmt.Fprintln(w, "no crossings, π estimate unavailable")
	}
}
