package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"viaggi/internal/costs"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "viaggictl",
		Short:         "Trip budget calculator",
		Long:          "Compute trip cost breakdowns, inspect city rates and estimate activity costs.",
		SilenceUsage: true,
	}
	root.AddCommand(newBreakdownCmd(), newRatesCmd(), newEstimateCmd())
	return root
}

// rateTable returns the builtin table with the overrides of path applied.
// An empty path leaves the builtin rates untouched.
func rateTable(path string) (*costs.RateTable, error) {
	table := costs.DefaultRateTable()
	if path == "" {
		return table, nil
	}
	f, err := costs.LoadRatesFile(path)
	if err != nil {
		return nil, err
	}
	if err := table.Apply(f); err != nil {
		return nil, fmt.Errorf("apply %s: %w", path, err)
	}
	return table, nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
}
