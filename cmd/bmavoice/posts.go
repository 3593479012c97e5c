package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Post maintenance tasks",
}

var postsBackfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Score sentiment and classify policy aspect for posts missing them",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = a.cfg.Cron.BackfillBatch
		}
		n, err := a.srv.Dispatcher().Backfill(limit)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s posts\n", okStyle.Render("analyzed"), humanize.Comma(int64(n)))
		return nil
	},
}

func init() {
	postsBackfillCmd.Flags().Int("limit", 0, "maximum posts to process (default cron.backfill_batch)")
	postsCmd.AddCommand(postsBackfillCmd)
}
