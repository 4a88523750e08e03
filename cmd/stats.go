package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/leetprob/internal/predict"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics aggregated from your submission history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		d, err := openDeps(cmd, nil)
		if err != nil {
			return err
		}
		defer d.Close()

		report, err := d.predictor.Summary(cmd.Context())
		var insufficient *predict.InsufficientDataError
		if errors.As(err, &insufficient) {
			fmt.Fprintln(cmd.ErrOrStderr(), "No statistics:", insufficient.Reason)
			return nil
		}
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		fmt.Fprintf(out, "User:               %s\n", report.User)
		fmt.Fprintf(out, "Solved / attempted: %d / %d\n", report.Overall.Solved, report.Overall.Attempted)
		fmt.Fprintf(out, "Submissions:        %d (%d wrong)\n", report.Overall.Submissions, report.Overall.Wrong)
		fmt.Fprintf(out, "Personal score:     %.3f\n", report.PersonalScore)
		if report.Dropped > 0 {
			fmt.Fprintf(out, "Skipped:            %d submissions without problem details\n", report.Dropped)
		}

		fmt.Fprintln(out)
		fmt.Fprintf(out, "%-10s  %6s  %9s  %8s  %8s  %6s\n", "Difficulty", "Solved", "Attempted", "Accuracy", "Coverage", "Score")
		fmt.Fprintln(out, strings.Repeat("─", 58))
		for _, row := range report.Difficulties {
			fmt.Fprintf(out, "%-10s  %6d  %9d  %8.3f  %8.3f  %6.3f\n",
				row.Difficulty, row.Stat.Solved, row.Stat.Attempted, row.Stat.Accuracy(), row.Coverage, row.Score)
		}

		fmt.Fprintln(out)
		fmt.Fprintf(out, "%-28s  %6s  %9s  %8s\n", "Tag", "Solved", "Attempted", "Accuracy")
		fmt.Fprintln(out, strings.Repeat("─", 58))
		for i, row := range report.Tags {
			if limit > 0 && i == limit {
				fmt.Fprintf(out, "... %d more\n", len(report.Tags)-limit)
				break
			}
			fmt.Fprintf(out, "%-28s  %6d  %9d  %8.3f\n",
				truncate(row.Name, 28), row.Stat.Solved, row.Stat.Attempted, row.Stat.Accuracy())
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().IntP("limit", "n", 15, "Number of tags to show (0 = all)")
	statsCmd.Flags().Bool("json", false, "Print the report as JSON")
}
