package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-eer"
	"github.com/jamesainslie/go-eer/counter"
	"github.com/jamesainslie/go-eer/internal/config"
	"github.com/jamesainslie/go-eer/internal/dataset"
	"github.com/jamesainslie/go-eer/internal/results"
	"github.com/jamesainslie/go-eer/score"
)

// computeFlags are the computation settings a subcommand may override.
type computeFlags struct {
	labels  string
	scores  string
	save    string
	resume  string
	workers int

	resolution  int
	minval      float64
	maxval      float64
	unit        float64
	sensitivity float64
	zoom        int
	column      int
	negative    bool
	strict      bool
}

func (f *computeFlags) register(cmd *cobra.Command) {
	d := config.Default()
	fs := cmd.Flags()
	fs.StringVar(&f.labels, "labels", "", "label file (required)")
	fs.StringVar(&f.scores, "scores", "", "score file (required)")
	fs.StringVar(&f.save, "save", "", "directory to write result.txt, counter.pb and curve.pb to")
	fs.StringVar(&f.resume, "counter", "", "result directory whose counter to continue accumulating on")
	fs.IntVar(&f.workers, "workers", d.Workers, "utterances accumulated in parallel")
	fs.IntVar(&f.resolution, "resolution", 0, "threshold buckets (default 8000, 100000 for mseer)")
	fs.Float64Var(&f.minval, "minval", d.Minval, "score lower bound")
	fs.Float64Var(&f.maxval, "maxval", d.Maxval, "score upper bound")
	fs.Float64Var(&f.unit, "unit", d.Unit, "segment or frame duration in seconds")
	fs.IntVar(&f.column, "score-column", 0, "score column (default 1, 2 for mseer frame files)")
	fs.BoolVar(&f.negative, "negative-class", d.NegativeClass, "scores are for the bonafide class; use 1 - score")
	fs.BoolVar(&f.strict, "strict", d.StrictLengths, "reject utterances with more scores than labels")
	_ = cmd.MarkFlagRequired("labels")
	_ = cmd.MarkFlagRequired("scores")
}

// apply copies every explicitly set flag over the loaded configuration.
func (f *computeFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}
	set("workers", func() { cfg.Workers = f.workers })
	set("resolution", func() { cfg.Resolution = f.resolution })
	set("minval", func() { cfg.Minval = f.minval })
	set("maxval", func() { cfg.Maxval = f.maxval })
	set("unit", func() { cfg.Unit = f.unit })
	set("sensitivity", func() { cfg.Sensitivity = f.sensitivity })
	set("zoom", func() { cfg.Zoom = f.zoom })
	set("score-column", func() { cfg.ScoreColumn = f.column })
	set("negative-class", func() { cfg.NegativeClass = f.negative })
	set("strict", func() { cfg.StrictLengths = f.strict })
}

func newComputeCmd(a *app) *cobra.Command {
	var f computeFlags
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Utterance-based or segment-based EER",
		Long: `Compute the EER of per-utterance (--unit 0) or per-segment scores.

The label file holds "name duration tag [start-end-tag ...]" lines and the
score file "name score ..." lines. With --unit > 0 the spoof annotations are
cut into unit-second windows, and --zoom resamples the scores first:
k > 1 pools k scores per window, -k repeats every score k times and 0 pools
the whole utterance.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.apply(cmd, a.cfg)
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.runCompute(cmd, &f)
		},
	}
	f.register(cmd)
	d := config.Default()
	cmd.Flags().Float64Var(&f.sensitivity, "sensitivity", d.Sensitivity, "spoof share above which a window is spoof")
	cmd.Flags().IntVar(&f.zoom, "zoom", d.Zoom, "score resampling factor")
	return cmd
}

func (a *app) runCompute(cmd *cobra.Command, f *computeFlags) error {
	cfg := a.cfg
	unitCal := score.UnitCal(cfg.Unit, cfg.Zoom)
	mode := results.ModeSegment
	if unitCal == 0 {
		mode = results.ModeUtterance
	}
	a.logger.Info("computing EER", "mode", mode, "unit", cfg.Unit, "unit_cal", unitCal,
		"zoom", cfg.Zoom, "negative_class", cfg.NegativeClass)

	recs, err := dataset.LoadLabels(f.labels)
	if err != nil {
		return err
	}
	labels := dataset.UnitLabels(recs, unitCal, cfg.Sensitivity)

	column := cfg.ScoreColumn
	if column == 0 {
		column = dataset.ScoreColumn
	}
	scores, err := dataset.LoadScores(f.scores, column, cfg.NegativeClass)
	if err != nil {
		return err
	}
	if cfg.Zoom != 1 {
		scores.Zoom(cfg.Zoom, cfg.NegativeClass)
	}
	a.logger.Info("loaded dataset", "labels", len(labels), "scores", len(scores.Values))
	dataset.Match(a.logger, labels, scores.Values)

	opts, err := a.resumeOptions(f.resume)
	if err != nil {
		return err
	}
	res, err := eer.Compute(cmd.Context(), labels, scores.Values, opts...)
	if err != nil {
		return err
	}

	run := &results.Run{
		Info: results.Info{
			Mode:        mode,
			UnitInput:   cfg.Unit,
			UnitCal:     unitCal,
			Zoom:        cfg.Zoom,
			ScoreColumn: column,
			LabPaths:    []string{f.labels},
			ScoPaths:    []string{f.scores},
			SavePath:    f.save,
		},
		Result: res,
	}
	return a.finish(cmd, run)
}

// resumeOptions adds a preloaded counter from dir when one is given.
func (a *app) resumeOptions(dir string) ([]eer.Option, error) {
	opts := a.eerOptions()
	if dir == "" {
		return opts, nil
	}
	prev, err := results.Read(dir, counter.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	if prev.Result.Negative != a.cfg.NegativeClass {
		return nil, fmt.Errorf("%w: %s negative class %t, configured %t",
			eer.ErrIncompatible, dir, prev.Result.Negative, a.cfg.NegativeClass)
	}
	a.logger.Info("continuing from counter", "dir", dir, "mass", prev.Result.Counter.Mass())
	return append(opts, eer.WithCounter(prev.Result.Counter)), nil
}

// finish prints the summary line and persists the run where configured.
func (a *app) finish(cmd *cobra.Command, run *results.Run) error {
	printSummary(cmd.OutOrStdout(), run.Result)

	if run.SavePath != "" {
		if err := results.Write(run.SavePath, run); err != nil {
			return err
		}
		a.logger.Info("saved result", "dir", run.SavePath)
	}

	st, err := a.openStore()
	if err != nil || st == nil {
		return err
	}
	defer func() { _ = st.Close() }()

	id, err := st.Insert(cmd.Context(), run, a.cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run=%s\n", id)
	return nil
}

func printSummary(w io.Writer, r *eer.Result) {
	fmt.Fprintf(w, "eer=%.2f%% margin=%.2f%% threshold=%.4f cut=%.4f minscore=%.3f maxscore=%.3f negative=%t utterances=%d\n",
		r.EER*100, r.Margin*100, r.Threshold, r.Cut, r.Scores.Min, r.Scores.Max, r.Negative, r.Utterances)
}
