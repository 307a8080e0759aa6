package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-eer"
	"github.com/jamesainslie/go-eer/counter"
	"github.com/jamesainslie/go-eer/internal/results"
)

func newCombineCmd(a *app) *cobra.Command {
	var runIDs []string
	cmd := &cobra.Command{
		Use:   "combine SAVE [DIR ...]",
		Short: "Sum the counters of several results and recompute the EER",
		Long: `Combine result directories, and with --run registered runs, into one
result written to SAVE. All inputs must share resolution, score bounds and
negative-class convention.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCombine(cmd, args[0], args[1:], runIDs)
		},
	}
	cmd.Flags().StringSliceVar(&runIDs, "run", nil, "registered run ID to include (repeatable)")
	return cmd
}

func (a *app) runCombine(cmd *cobra.Command, save string, dirs, runIDs []string) error {
	if len(dirs)+len(runIDs) == 0 {
		return errors.New("nothing to combine: give result directories or --run IDs")
	}

	var runs []*results.Run
	for _, dir := range dirs {
		run, err := results.Read(dir, counter.WithLogger(a.logger))
		if err != nil {
			return err
		}
		a.logger.Info("loaded result", "dir", dir, "eer", run.Result.EER)
		runs = append(runs, run)
	}

	if len(runIDs) > 0 {
		st, err := a.openStore()
		if err != nil {
			return err
		}
		if st == nil {
			return errors.New("--run needs a registry: set --db")
		}
		defer func() { _ = st.Close() }()
		for _, id := range runIDs {
			run, err := st.Run(cmd.Context(), id, counter.WithLogger(a.logger))
			if err != nil {
				return err
			}
			a.logger.Info("loaded registered run", "run", id, "eer", run.Result.EER)
			runs = append(runs, run)
		}
	}

	combined := make([]*eer.Result, len(runs))
	info := results.Info{Mode: results.ModeCombined, SavePath: save}
	for i, run := range runs {
		combined[i] = run.Result
		info.LabPaths = append(info.LabPaths, run.LabPaths...)
		info.ScoPaths = append(info.ScoPaths, run.ScoPaths...)
	}
	first := runs[0].Info
	info.UnitInput, info.UnitCal, info.Zoom, info.ScoreColumn = first.UnitInput, first.UnitCal, first.Zoom, first.ScoreColumn

	res, err := eer.Combine(combined, eer.WithLogger(a.logger), eer.WithTolerance(a.cfg.Tolerance))
	if err != nil {
		return err
	}
	a.logger.Info("combined results", "inputs", len(runs))

	fmt.Fprintf(cmd.OutOrStdout(), "inputs=%d ", len(runs))
	return a.finish(cmd, &results.Run{Info: info, Result: res})
}
