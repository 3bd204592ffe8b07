package sheets

import (
	"context"

	"viaggi/internal/core"
)

// Ports for outbound adapters.
type (
	// BudgetExporter keeps one budget row per trip in an external sheet.
	BudgetExporter interface {
		// UpsertTripBudget writes the row of row.TripID, replacing it when it
		// already exists.
		UpsertTripBudget(ctx context.Context, row BudgetRow) (rowRef string, err error)
		// DeleteTripBudget removes the row of a trip. Missing rows are not an
		// error.
		DeleteTripBudget(ctx context.Context, tripID string) error
	}

	// BudgetLister reads back the exported rows.
	BudgetLister interface {
		ListTripBudgets(ctx context.Context) ([]BudgetRow, error)
	}
)

// BudgetHeader is the first row of the budget sheet.
var BudgetHeader = []string{
	"Trip ID", "Name", "Start", "End", "Days",
	"Accommodation", "Food", "Transport", "Activities", "Total", "Per Day",
}

// BudgetRow is the exported summary of one trip.
type BudgetRow struct {
	TripID        string
	Name          string
	StartDate     core.Date
	EndDate       core.Date
	Days          int
	Accommodation core.Money
	Food          core.Money
	Transport     core.Money
	Activities    core.Money
	Total         core.Money
	PerDay        core.Money
}

func NewBudgetRow(t core.Trip, b core.CostBreakdown) BudgetRow {
	return BudgetRow{
		TripID:        t.ID,
		Name:          t.Name,
		StartDate:     t.StartDate,
		EndDate:       t.EndDate,
		Days:          b.TotalDays,
		Accommodation: b.Accommodation,
		Food:          b.Food,
		Transport:     b.Transport,
		Activities:    b.Activities,
		Total:         b.Total,
		PerDay:        b.PerDayAverage,
	}
}

// Cells returns the row in BudgetHeader column order. Amounts are dollars.
func (r BudgetRow) Cells() []any {
	return []any{
		r.TripID,
		r.Name,
		r.StartDate.String(),
		r.EndDate.String(),
		r.Days,
		r.Accommodation.Float(),
		r.Food.Float(),
		r.Transport.Float(),
		r.Activities.Float(),
		r.Total.Float(),
		r.PerDay.Float(),
	}
}
