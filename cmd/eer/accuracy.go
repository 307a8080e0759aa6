package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-eer/counter"
	"github.com/jamesainslie/go-eer/internal/results"
	"github.com/jamesainslie/go-eer/metrics"
	"github.com/jamesainslie/go-eer/score"
)

type accuracyFlags struct {
	threshold    float64
	eerThreshold bool
	recall       float64
	precision    float64
	sweep        bool
	sweepMin     float64
	sweepMax     float64
	sweepStep    float64
	wp           float64
	wr           float64
}

func newAccuracyCmd(a *app) *cobra.Command {
	var f accuracyFlags
	cmd := &cobra.Command{
		Use:   "accuracy DIR",
		Short: "Accuracy, precision, recall and F1 from a saved result",
		Long: `Derive detection metrics from the counter saved in DIR.

Spoof is the positive class. The decision point is --threshold (a raw
score), the EER bucket (--eer-threshold), the highest bucket still above a
recall target (--recall) or the lowest bucket still above a precision target
(--precision). --sweep lists
a range of thresholds ranked by weighted precision and recall.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := results.Read(args[0], counter.WithLogger(a.logger))
			if err != nil {
				return err
			}
			return runAccuracy(cmd, run, &f)
		},
	}

	fs := cmd.Flags()
	fs.Float64Var(&f.threshold, "threshold", 0.5, "raw score threshold")
	fs.BoolVar(&f.eerThreshold, "eer-threshold", false, "evaluate at the EER bucket")
	fs.Float64Var(&f.recall, "recall", 0, "evaluate at the highest bucket with recall above this target")
	fs.Float64Var(&f.precision, "precision", 0, "evaluate at the lowest bucket with precision above this target")
	fs.BoolVar(&f.sweep, "sweep", false, "sweep a threshold range")
	fs.Float64Var(&f.sweepMin, "sweep-min", -1.0, "sweep minimum threshold")
	fs.Float64Var(&f.sweepMax, "sweep-max", 1.0, "sweep maximum threshold")
	fs.Float64Var(&f.sweepStep, "sweep-step", 0.1, "sweep step size")
	fs.Float64Var(&f.wp, "wp", 1.0, "precision weight for the sweep")
	fs.Float64Var(&f.wr, "wr", 1.0, "recall weight for the sweep")
	cmd.MarkFlagsMutuallyExclusive("eer-threshold", "recall", "precision", "sweep")
	return cmd
}

func runAccuracy(cmd *cobra.Command, run *results.Run, f *accuracyFlags) error {
	r := run.Result
	calc := metrics.New(r.Counter)
	w := cmd.OutOrStdout()

	// Thresholds are given and reported in the original score space;
	// the counter holds flipped scores for negative-class runs.
	toCounter := func(t float64) float64 {
		if r.Negative {
			return score.Flip(t)
		}
		return t
	}

	var (
		m   metrics.Metrics
		err error
	)
	switch fs := cmd.Flags(); {
	case f.sweep:
		thresholds := metrics.SweepThresholds(f.sweepMin, f.sweepMax, f.sweepStep)
		counterSpace := make([]float64, len(thresholds))
		for i, t := range thresholds {
			counterSpace[i] = toCounter(t)
		}
		ranked := calc.Sweep(counterSpace, metrics.Weights{Precision: f.wp, Recall: f.wr})
		printSweep(w, ranked, toCounter, f)
		return nil
	case f.eerThreshold:
		m = calc.At(r.Index)
	case fs.Changed("recall"):
		m, err = calc.AtRecall(f.recall)
	case fs.Changed("precision"):
		m, err = calc.AtPrecision(f.precision)
	default:
		m = calc.AtThreshold(toCounter(f.threshold))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "threshold=%.4f\n", toCounter(m.Threshold))
	fmt.Fprintf(w, "index=%d\n", m.Bucket)
	fmt.Fprintf(w, "accuracy=%.4f\n", m.Accuracy*100)
	fmt.Fprintf(w, "precision=%.4f\n", m.Precision*100)
	fmt.Fprintf(w, "recall=%.4f\n", m.Recall*100)
	fmt.Fprintf(w, "f1=%.4f\n", m.F1*100)
	return nil
}

func printSweep(w io.Writer, ranked []metrics.SweepResult, toOriginal func(float64) float64, f *accuracyFlags) {
	fmt.Fprintf(w, "Threshold Sweep Results (wp=%.1f, wr=%.1f)\n", f.wp, f.wr)
	fmt.Fprintln(w, strings.Repeat("-", 58))
	fmt.Fprintf(w, "%-10s %-8s %-8s %-8s %-8s %-8s\n", "Thresh", "Acc", "Prec", "Rec", "F1", "Weighted")

	// Print in threshold order for readability.
	byThreshold := make(map[float64]metrics.SweepResult, len(ranked))
	for _, r := range ranked {
		byThreshold[r.Threshold] = r
	}
	for _, t := range metrics.SweepThresholds(f.sweepMin, f.sweepMax, f.sweepStep) {
		r := byThreshold[toOriginal(t)]
		fmt.Fprintf(w, "%-10.4f %-8.2f %-8.2f %-8.2f %-8.2f %-8.2f\n",
			t, r.Metrics.Accuracy*100, r.Metrics.Precision*100, r.Metrics.Recall*100, r.Metrics.F1*100, r.WeightedScore*100)
	}

	fmt.Fprintln(w, strings.Repeat("-", 58))
	if len(ranked) > 0 {
		best := ranked[0]
		fmt.Fprintf(w, "Optimal: %.4f (Weighted: %.2f)\n", toOriginal(best.Threshold), best.WeightedScore*100)
	}
}
