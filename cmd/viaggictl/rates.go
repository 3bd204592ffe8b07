package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRatesCmd() *cobra.Command {
	var ratesPath string
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "List the effective per-day city rates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := rateTable(ratesPath)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "City\tCountry\tStay\tFood\tTransport\tPer day\tIndex\t")
			def := table.Default()
			fmt.Fprintf(tw, "(default)\t\t%s\t%s\t%s\t%s\t%.2f\t\n",
				def.Accommodation, def.Food, def.Transport, def.Accommodation.Add(def.Food).Add(def.Transport), def.CostIndex)
			for _, r := range table.Cities() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%.2f\t\n",
					r.City, r.Country, r.Accommodation, r.Food, r.Transport,
					r.Accommodation.Add(r.Food).Add(r.Transport), r.CostIndex)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&ratesPath, "rates", "", "City rate overrides (TOML)")
	return cmd
}
