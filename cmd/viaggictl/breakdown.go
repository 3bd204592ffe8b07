package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"viaggi/internal/core"
	"viaggi/internal/costs"
)

func newBreakdownCmd() *cobra.Command {
	var tripPath, ratesPath string
	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Cost breakdown of a trip described in TOML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tripPath == "" {
				return errors.New("--trip is required")
			}
			trip, err := loadTripFile(tripPath)
			if err != nil {
				return err
			}
			rates, err := rateTable(ratesPath)
			if err != nil {
				return err
			}
			return printBreakdown(cmd, trip, costs.ComputeBreakdown(trip, trip.Stops, rates))
		},
	}
	cmd.Flags().StringVar(&tripPath, "trip", "", "Trip description (TOML)")
	cmd.Flags().StringVar(&ratesPath, "rates", "", "City rate overrides (TOML)")
	return cmd
}

func printBreakdown(cmd *cobra.Command, trip core.Trip, b core.CostBreakdown) error {
	out := cmd.OutOrStdout()
	if trip.Name != "" {
		fmt.Fprintln(out, trip.Name)
		fmt.Fprintln(out, strings.Repeat("=", len(trip.Name)))
	}
	if len(b.Stops) == 0 {
		fmt.Fprintln(out, "No stops planned.")
		return nil
	}

	tw := newTable(out)
	fmt.Fprintln(tw, "City\tDays\tStay\tFood\tTransport\tActivities\tTotal\t")
	for _, s := range b.Stops {
		city := s.City
		if s.FallbackRate {
			city += " *"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t\n",
			city, s.Days, s.Accommodation, s.Food, s.Transport, s.Activities, s.Total)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	tw = newTable(out)
	for _, c := range costs.Categories(b) {
		fmt.Fprintf(tw, "%s\t%s\t\n", c.Name, c.Amount)
	}
	fmt.Fprintf(tw, "Total\t%s\t\n", b.Total)
	fmt.Fprintf(tw, "Per day (%d days)\t%s\t\n", b.TotalDays, b.PerDayAverage)
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, s := range b.Stops {
		if s.FallbackRate {
			fmt.Fprintln(out, "\n* no rates known for this city, default rate used")
			break
		}
	}
	return nil
}
