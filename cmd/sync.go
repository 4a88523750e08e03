package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/leetprob/internal/predict"
	"github.com/abhisek/leetprob/internal/problem"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refetch submission history, problem details and site totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, nil)
		if err != nil {
			return err
		}
		defer d.Close()

		report, err := d.predictor.Sync(cmd.Context())
		if errors.Is(err, predict.ErrInsufficientData) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Not signed in. Set LEETPROB_LEETCODE_SESSION to your LEETCODE_SESSION cookie.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "User:         %s\n", report.User)
		fmt.Fprintf(out, "Submissions:  %d\n", report.Submissions)
		fmt.Fprintf(out, "Problems:     %d\n", report.Problems)
		for _, diff := range problem.Difficulties {
			t := report.Totals[diff]
			fmt.Fprintf(out, "%-12s  %d / %d solved\n", diff+":", t.Solved, t.Total)
		}
		return nil
	},
}
