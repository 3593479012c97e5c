package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Print the top citizens by points",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.srv.Leaderboard().Top()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, warnStyle.Render("no ranked users yet"))
			return nil
		}

		cols := []column{
			{title: "Rank", width: 6},
			{title: "User", width: 20},
			{title: "Points", width: 10, numeric: true},
			{title: "Level", width: 7, numeric: true},
			{title: "Title", width: 22},
		}
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{
				humanize.Ordinal(e.Rank),
				e.Username,
				humanize.Comma(int64(e.Points)),
				strconv.Itoa(e.Level),
				e.Title,
			})
		}
		renderTable(out, cols, rows)
		return nil
	},
}
