package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"viaggi/internal/core"
	"viaggi/internal/costs"
)

func newEstimateCmd() *cobra.Command {
	var minCost, maxCost string
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate a catalog activity cost from its typical range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lo, err := core.ParseDecimalToCents(minCost)
			if err != nil {
				return fmt.Errorf("--min: %w", err)
			}
			hi, err := core.ParseDecimalToCents(maxCost)
			if err != nil {
				return fmt.Errorf("--max: %w", err)
			}
			if lo > hi {
				return core.ErrInvalidCostRange
			}
			est := costs.EstimateActivityCost(core.Activity{
				MinCost: core.Money{Cents: lo},
				MaxCost: core.Money{Cents: hi},
			})
			fmt.Fprintln(cmd.OutOrStdout(), est)
			return nil
		},
	}
	cmd.Flags().StringVar(&minCost, "min", "0", "Lowest typical cost")
	cmd.Flags().StringVar(&maxCost, "max", "0", "Highest typical cost")
	return cmd
}
