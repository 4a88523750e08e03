package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear every cache and the stored user",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, nil)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		err = errors.Join(
			d.sessions.Reset(ctx),
			d.diffIndex.Clear(ctx),
			d.tagIndex.Clear(ctx),
		)
		if err != nil {
			return fmt.Errorf("reset: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Cleared cached submissions, problem details, solve counts and stored user.")
		return nil
	},
}
