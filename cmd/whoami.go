package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and the user the caches belong to",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, nil)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		id, err := d.client.Identity(ctx)
		if err != nil {
			return fmt.Errorf("identify user: %w", err)
		}
		stored, err := d.sessions.Current(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if id.IsSignedIn {
			fmt.Fprintf(out, "Signed in as:  %s\n", id.Username)
		} else {
			fmt.Fprintln(out, "Signed in as:  (nobody)")
			if !d.cfg.HasSession() {
				fmt.Fprintln(out, "Hint: set LEETPROB_LEETCODE_SESSION to your LEETCODE_SESSION cookie.")
			}
		}
		if stored == "" {
			stored = "(none)"
		}
		fmt.Fprintf(out, "Cached data:   %s\n", stored)

		n, err := d.catalog.Len(ctx)
		if err != nil {
			return err
		}
		subs, err := d.subs.Cached(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Cached:        %d submissions, %d problems\n", len(subs), n)
		return nil
	},
}
