// Package costs is the trip cost aggregation engine.
//
// Everything here is pure: a breakdown is derived from a trip's stops, their
// activities and a rate source, and is recomputed whenever it is needed.
// Missing data degrades silently (unknown city uses the default rate, missing
// or inverted dates count as one day) so the functions never fail.
package costs

import (
	"sort"

	"viaggi/internal/core"
)

// StopDays returns the number of days a stop is billed for: the whole days
// between its start and end date, never less than one.
func StopDays(s core.TripStop) int {
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return 1
	}
	if d := s.StartDate.DaysUntil(s.EndDate); d > 1 {
		return d
	}
	return 1
}

// ActivitiesCost sums the estimated cost of every activity of a stop.
func ActivitiesCost(s core.TripStop) core.Money {
	var total core.Money
	for _, a := range s.Activities {
		total = total.Add(a.EstimatedCost)
	}
	return total
}

// StopEstimate computes the cost of a single stop.
func StopEstimate(s core.TripStop, rates RateSource) core.StopCost {
	days := StopDays(s)
	r, found := rates.RatesFor(s.CityName)

	sc := core.StopCost{
		StopID:        s.ID,
		City:          s.CityName,
		Days:          days,
		Accommodation: r.Accommodation.Times(days),
		Food:          r.Food.Times(days),
		Transport:     r.Transport.Times(days),
		Activities:    ActivitiesCost(s),
		FallbackRate:  !found,
	}
	sc.Total = sc.Accommodation.Add(sc.Food).Add(sc.Transport).Add(sc.Activities)
	return sc
}

// ComputeBreakdown aggregates the cost of a trip over its stops.
//
// Stops are visited in OrderIndex order. The per-day average divides the
// total by the sum of the stop day counts; overlapping stops are counted
// once each. A trip without stops yields a zero breakdown.
func ComputeBreakdown(trip core.Trip, stops []core.TripStop, rates RateSource) core.CostBreakdown {
	b := core.CostBreakdown{TripID: trip.ID}
	if len(stops) == 0 {
		return b
	}

	ordered := SortStops(stops)
	b.Stops = make([]core.StopCost, 0, len(ordered))
	for _, s := range ordered {
		sc := StopEstimate(s, rates)
		b.Stops = append(b.Stops, sc)

		b.Accommodation = b.Accommodation.Add(sc.Accommodation)
		b.Food = b.Food.Add(sc.Food)
		b.Transport = b.Transport.Add(sc.Transport)
		b.Activities = b.Activities.Add(sc.Activities)
		b.TotalDays += sc.Days
	}

	b.Total = b.Accommodation.Add(b.Food).Add(b.Transport).Add(b.Activities)
	b.PerDayAverage = b.Total.DivRound(max(1, b.TotalDays))
	return b
}

// SortStops returns a copy of stops ordered by OrderIndex. Ties keep their
// input order.
func SortStops(stops []core.TripStop) []core.TripStop {
	out := make([]core.TripStop, len(stops))
	copy(out, stops)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderIndex < out[j].OrderIndex
	})
	return out
}

// EstimateActivityCost returns the midpoint of a catalog activity's typical
// cost range, rounded to the cent.
func EstimateActivityCost(a core.Activity) core.Money {
	return a.MinCost.Add(a.MaxCost).DivRound(2)
}

// Category is one slice of a breakdown, as shown in a budget chart.
type Category struct {
	Name   string
	Amount core.Money
}

// Categories returns the non-zero categories of a breakdown in a fixed order.
func Categories(b core.CostBreakdown) []Category {
	all := []Category{
		{Name: "Accommodation", Amount: b.Accommodation},
		{Name: "Food", Amount: b.Food},
		{Name: "Transport", Amount: b.Transport},
		{Name: "Activities", Amount: b.Activities},
	}
	out := all[:0]
	for _, c := range all {
		if !c.Amount.IsZero() {
			out = append(out, c)
		}
	}
	return out
}
