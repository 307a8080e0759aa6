// Command eer-plot draws the bonafide and spoof score distributions of a
// saved EER result.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-eer/internal/logging"
	"github.com/jamesainslie/go-eer/internal/plot"
	"github.com/jamesainslie/go-eer/internal/results"
	"github.com/jamesainslie/go-eer/score"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type plotFlags struct {
	out        string
	thresholds []float64
	xmin       float64
	xmax       float64
	ymax       float64
	logLevel   string
}

func newRootCmd() *cobra.Command {
	f := &plotFlags{}
	cmd := &cobra.Command{
		Use:           "eer-plot DIR",
		Short:         "Plot the score distributions of a saved result",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.out, "out", "o", "", "output image; extension selects png, svg or pdf (default DIR/distribution.png)")
	fl.Float64SliceVar(&f.thresholds, "threshold", nil, "extra threshold to mark (repeatable)")
	fl.Float64Var(&f.xmin, "xmin", 0, "left edge of the x axis (default lowest observed score)")
	fl.Float64Var(&f.xmax, "xmax", 0, "right edge of the x axis (default highest observed score)")
	fl.Float64Var(&f.ymax, "ymax", 0, "top of the y axis in percent (default fit)")
	fl.StringVar(&f.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	return cmd
}

func run(cmd *cobra.Command, dir string, f *plotFlags) error {
	level, err := logging.ParseLevel(f.logLevel)
	if err != nil {
		return err
	}
	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Output = cmd.ErrOrStderr()
	lc.Component = "eer-plot"
	logger := logging.New(lc)

	saved, err := results.Read(dir)
	if err != nil {
		return err
	}
	res := saved.Result
	c := res.Counter

	// The counter holds scores as accumulated; thresholds in the reported
	// convention are flipped back for a negative-class run.
	marks := make([]float64, len(f.thresholds))
	for i, t := range f.thresholds {
		if res.Negative {
			t = score.Flip(t)
		}
		marks[i] = t
	}

	minscore, maxscore := c.Bounds()
	if !res.Scores.Empty() {
		minscore, maxscore = res.Scores.Min, res.Scores.Max
	}
	xmin, xmax := plot.Bounds(f.xmin, f.xmax, minscore, maxscore)

	p, err := plot.Distribution(c, c.Edge(res.Index), plot.Options{
		XMin:       xmin,
		XMax:       xmax,
		YMax:       f.ymax,
		Thresholds: marks,
	})
	if err != nil {
		return err
	}
	p.Title.Text = fmt.Sprintf("EER %.2f%% at %.4f", res.EER*100, res.Threshold)

	out := f.out
	if out == "" {
		out = filepath.Join(dir, "distribution.png")
	}
	if err := plot.Save(p, out); err != nil {
		return err
	}
	logger.Info("saved plot", "path", out, "xmin", xmin, "xmax", xmax)
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
