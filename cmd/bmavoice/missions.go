package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ZyrusXD/BMA-Voice/internal/mission"
)

var missionsCmd = &cobra.Command{
	Use:   "missions",
	Short: "Manage the mission catalog and daily assignments",
}

var missionsAssignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign daily missions to every user (idempotent per day)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var summary mission.Summary
		date, _ := cmd.Flags().GetString("date")
		if date == "" {
			summary, err = a.srv.Scheduler().RunDailyMissionAssignment()
		} else {
			loc, lerr := a.cfg.Location()
			if lerr != nil {
				return lerr
			}
			asOf, perr := time.ParseInLocation(time.DateOnly, date, loc)
			if perr != nil {
				return fmt.Errorf("invalid --date: %w", perr)
			}
			summary, err = a.srv.Missions().AssignDaily(asOf)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, okStyle.Render("Daily missions for "+summary.Date))
		renderField(out, "users", humanize.Comma(int64(summary.Users)))
		renderField(out, "missions assigned", humanize.Comma(int64(summary.Assigned)))
		renderField(out, "already assigned", humanize.Comma(int64(summary.Skipped)))
		if summary.Failed > 0 {
			renderField(out, "failed", warnStyle.Render(humanize.Comma(int64(summary.Failed))))
		}
		return nil
	},
}

var missionsSeedCmd = &cobra.Command{
	Use:   "seed [catalog.yaml]",
	Short: "Add mission templates from a YAML catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		path := a.cfg.Missions.CatalogPath
		if len(args) == 1 {
			path = args[0]
		}
		n, err := a.srv.Missions().SeedCatalog(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s from %s\n",
			okStyle.Render("added"), humanize.Comma(int64(n)), path)
		return nil
	},
}

func init() {
	missionsAssignCmd.Flags().String("date", "", "assignment date YYYY-MM-DD (default today)")
	missionsCmd.AddCommand(missionsAssignCmd, missionsSeedCmd)
}
