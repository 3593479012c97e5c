package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var districtsCmd = &cobra.Command{
	Use:   "districts",
	Short: "Inspect the district polygon data",
}

var districtsResolveCmd = &cobra.Command{
	Use:   "resolve LAT LON",
	Short: "Print the district containing a coordinate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid latitude %q", args[0])
		}
		lon, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid longitude %q", args[1])
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		renderField(out, "districts loaded", humanize.Comma(int64(a.srv.Districts().Count())))
		renderField(out, "district", a.srv.Districts().Resolve(lat, lon))
		return nil
	},
}

func init() {
	districtsCmd.AddCommand(districtsResolveCmd)
}
