package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var pollsCmd = &cobra.Command{
	Use:   "polls",
	Short: "Trend poll tasks",
}

var pollsWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Create this week's poll from the top hashtag of the last 7 days",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.srv.Scheduler().RunWeeklyPollGeneration()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if p == nil {
			fmt.Fprintln(out, warnStyle.Render("no poll created (no trending tag, or already created this week)"))
			return nil
		}
		fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("poll #%d created", p.ID)))
		renderField(out, "title", p.Title)
		renderField(out, "closes", humanize.Time(p.EndDate))
		for _, c := range p.Choices {
			renderField(out, "choice", c.Text)
		}
		return nil
	},
}

func init() {
	pollsCmd.AddCommand(pollsWeeklyCmd)
}
