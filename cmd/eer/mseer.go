package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-eer"
	"github.com/jamesainslie/go-eer/internal/dataset"
	"github.com/jamesainslie/go-eer/internal/results"
)

func newMseerCmd(a *app) *cobra.Command {
	var f computeFlags
	cmd := &cobra.Command{
		Use:   "mseer",
		Short: "Millisecond EER from frame-level scores",
		Long: `Compute the duration-weighted EER of frame-level scores.

The score file holds "name index score ..." lines; frame i covers
[i*unit, (i+1)*unit). Every overlap between a reference segment and a
frame counts its length in seconds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.apply(cmd, a.cfg)
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.runMseer(cmd, &f)
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) runMseer(cmd *cobra.Command, f *computeFlags) error {
	cfg := a.cfg
	if cfg.Unit <= 0 {
		return errors.New("mseer needs a frame duration: set --unit")
	}

	recs, err := dataset.LoadLabels(f.labels)
	if err != nil {
		return err
	}
	refs := dataset.Timestamps(recs)

	column := cfg.ScoreColumn
	if column == 0 {
		column = dataset.FrameScoreColumn
	}
	frames, err := dataset.LoadFrames(f.scores, column, cfg.Unit, cfg.NegativeClass)
	if err != nil {
		return err
	}
	a.logger.Info("loaded dataset", "labels", len(refs), "scores", len(frames.Values), "unit", cfg.Unit)
	dataset.Match(a.logger, refs, frames.Values)

	opts, err := a.resumeOptions(f.resume)
	if err != nil {
		return err
	}
	res, err := eer.ComputeTimeline(cmd.Context(), refs, frames.Values, opts...)
	if err != nil {
		return err
	}

	run := &results.Run{
		Info: results.Info{
			Mode:        results.ModeMillisecond,
			UnitInput:   cfg.Unit,
			UnitCal:     cfg.Unit,
			Zoom:        1,
			ScoreColumn: column,
			LabPaths:    []string{f.labels},
			ScoPaths:    []string{f.scores},
			SavePath:    f.save,
		},
		Result: res,
	}
	return a.finish(cmd, run)
}
