package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run registry",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List registered runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			if st == nil {
				return errors.New("no registry: set --db")
			}
			defer func() { _ = st.Close() }()

			recs, err := st.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tCREATED\tMODE\tEER\tTHRESHOLD\tUTTERANCES\tRESOLUTION")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f%%\t%.4f\t%d\t%d\n",
					r.RunID, r.CreatedAt.Format(time.RFC3339), r.Mode, r.EER*100, r.Threshold, r.Utterances, r.Resolution)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum runs to list (0 for all)")

	del := &cobra.Command{
		Use:   "delete ID...",
		Short: "Remove registered runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			if st == nil {
				return errors.New("no registry: set --db")
			}
			defer func() { _ = st.Close() }()

			for _, id := range args {
				if err := st.Delete(cmd.Context(), id); err != nil {
					return err
				}
				a.logger.Info("deleted run", "run", id)
			}
			return nil
		},
	}

	cmd.AddCommand(list, del)
	return cmd
}
