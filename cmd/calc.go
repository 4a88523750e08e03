package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/leetprob/internal/predict"
	"github.com/abhisek/leetprob/internal/scoring"
)

var calcCmd = &cobra.Command{
	Use:   "calc <slug|url>",
	Short: "Compute the probability of solving a problem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		refresh, _ := cmd.Flags().GetBool("refresh")
		noAI, _ := cmd.Flags().GetBool("no-ai")
		asJSON, _ := cmd.Flags().GetBool("json")
		breakdown, _ := cmd.Flags().GetBool("breakdown")

		slug := predict.ProblemSlug(args[0])
		if slug == "" {
			return fmt.Errorf("%q is not a problem slug or URL", args[0])
		}

		out := cmd.OutOrStdout()
		var sink predict.Sink
		if !asJSON {
			sink = predict.NewTerminalSink(out)
		}
		d, err := openDeps(cmd, sink)
		if err != nil {
			return err
		}
		defer d.Close()

		pred, err := d.predictor.Calculate(cmd.Context(), slug, predict.Options{
			ForceRefresh:    refresh,
			SkipSuggestions: noAI,
		})
		var insufficient *predict.InsufficientDataError
		if errors.As(err, &insufficient) {
			fmt.Fprintln(cmd.ErrOrStderr(), "No score:", insufficient.Reason)
			return nil
		}
		if err != nil {
			return fmt.Errorf("calculate %s: %w", slug, err)
		}

		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(pred)
		}
		if breakdown {
			printBreakdown(out, pred.Result)
		}
		return nil
	},
}

func printBreakdown(w io.Writer, r *scoring.Result) {
	sep := strings.Repeat("─", 64)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-24s  %6s  %9s  %8s  %6s\n", "Tag", "Solved", "Attempted", "Coverage", "Score")
	fmt.Fprintln(w, sep)
	for _, row := range r.Tags {
		fmt.Fprintf(w, "%-24s  %6d  %9d  %8.3f  %6.3f\n",
			truncate(row.Name, 24), row.Stat.Solved, row.Stat.Attempted, row.Coverage, row.Score)
	}
	if len(r.Tags) == 0 {
		fmt.Fprintln(w, "(no tags)")
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-24s  %6s  %9s  %8s  %6s\n", "Difficulty", "Solved", "Attempted", "Coverage", "Score")
	fmt.Fprintln(w, sep)
	for _, row := range r.Difficulties {
		fmt.Fprintf(w, "%-24s  %6d  %9d  %8.3f  %6.3f\n",
			row.Difficulty, row.Stat.Solved, row.Stat.Attempted, row.Coverage, row.Score)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Tag score:         %.3f\n", r.AvgTagScore)
	fmt.Fprintf(w, "Difficulty score:  %.3f\n", r.DifficultyScore)
	fmt.Fprintf(w, "Personal score:    %.3f\n", r.PersonalScore)
	fmt.Fprintf(w, "Baseline:          %s\n", scoring.FormatPercent(r.Baseline))
	if r.Chosen != nil {
		fmt.Fprintf(w, "Best combination:  %s (%s)\n",
			strings.Join(r.Chosen.Tags, " + "), scoring.FormatPercent(r.Chosen.Probability))
	}
}

func init() {
	calcCmd.Flags().Bool("refresh", false, "Refetch the full submission history first")
	calcCmd.Flags().Bool("no-ai", false, "Skip AI tag-combination suggestions")
	calcCmd.Flags().Bool("json", false, "Print the full result as JSON")
	calcCmd.Flags().BoolP("breakdown", "b", false, "Show the per-tag and per-difficulty scores")
}
