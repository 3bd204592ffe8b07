package costs

import (
	"testing"

	"viaggi/internal/core"
)

func stop(id, city string, order int, start, end core.Date, acts ...core.Money) core.TripStop {
	s := core.TripStop{ID: id, CityName: city, OrderIndex: order, StartDate: start, EndDate: end}
	for _, a := range acts {
		s.Activities = append(s.Activities, core.TripActivity{CustomName: "a", EstimatedCost: a})
	}
	return s
}

func parisTable() *RateTable {
	return NewRateTable(
		core.CityRates{City: "default", Accommodation: core.Dollars(80), Food: core.Dollars(40), Transport: core.Dollars(15)},
		core.CityRates{City: "Paris", Accommodation: core.Dollars(100), Food: core.Dollars(50), Transport: core.Dollars(20)},
		core.CityRates{City: "Rome", Accommodation: core.Dollars(90), Food: core.Dollars(45), Transport: core.Dollars(15)},
	)
}

func TestComputeBreakdown_SingleStop(t *testing.T) {
	trip := core.Trip{ID: "t1"}
	stops := []core.TripStop{
		stop("s1", "Paris", 0, core.NewDate(2025, 6, 1), core.NewDate(2025, 6, 4), core.Dollars(45)),
	}

	b := ComputeBreakdown(trip, stops, parisTable())

	checks := []struct {
		name string
		got  core.Money
		want core.Money
	}{
		{"accommodation", b.Accommodation, core.Dollars(300)},
		{"food", b.Food, core.Dollars(150)},
		{"transport", b.Transport, core.Dollars(60)},
		{"activities", b.Activities, core.Dollars(45)},
		{"total", b.Total, core.Dollars(555)},
		{"per day", b.PerDayAverage, core.Dollars(185)},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	if b.TotalDays != 3 {
		t.Errorf("TotalDays = %d, want 3", b.TotalDays)
	}
	if b.TripID != "t1" {
		t.Errorf("TripID = %q", b.TripID)
	}
}

func TestComputeBreakdown_PerDayUsesSumOfStopDays(t *testing.T) {
	stops := []core.TripStop{
		stop("s1", "Paris", 0, core.NewDate(2025, 6, 1), core.NewDate(2025, 6, 3)),
		stop("s2", "Rome", 1, core.NewDate(2025, 6, 3), core.NewDate(2025, 6, 7)),
	}
	b := ComputeBreakdown(core.Trip{}, stops, parisTable())

	if b.TotalDays != 6 {
		t.Fatalf("TotalDays = %d, want 6", b.TotalDays)
	}
	// Paris 2 x 170 + Rome 4 x 150 = 940
	if b.Total != core.Dollars(940) {
		t.Fatalf("Total = %s, want $940.00", b.Total)
	}
	if want := core.Dollars(940).DivRound(6); b.PerDayAverage != want {
		t.Fatalf("PerDayAverage = %s, want %s", b.PerDayAverage, want)
	}
}

func TestComputeBreakdown_OverlappingStopsNotDeduplicated(t *testing.T) {
	stops := []core.TripStop{
		stop("s1", "Paris", 0, core.NewDate(2025, 6, 1), core.NewDate(2025, 6, 5)),
		stop("s2", "Paris", 1, core.NewDate(2025, 6, 2), core.NewDate(2025, 6, 4)),
	}
	b := ComputeBreakdown(core.Trip{}, stops, parisTable())
	if b.TotalDays != 6 {
		t.Fatalf("TotalDays = %d, want 6", b.TotalDays)
	}
	if b.Accommodation != core.Dollars(600) {
		t.Fatalf("Accommodation = %s, want $600.00", b.Accommodation)
	}
}

func TestComputeBreakdown_UnknownCityUsesDefault(t *testing.T) {
	stops := []core.TripStop{
		stop("s1", "Atlantis", 0, core.NewDate(2025, 6, 1), core.NewDate(2025, 6, 3)),
	}
	b := ComputeBreakdown(core.Trip{}, stops, parisTable())
	if b.Accommodation != core.Dollars(160) || b.Food != core.Dollars(80) || b.Transport != core.Dollars(30) {
		t.Fatalf("unexpected fallback totals: %+v", b)
	}
	if !b.Stops[0].FallbackRate {
		t.Fatal("expected stop to be flagged as using the fallback rate")
	}
}

func TestComputeBreakdown_NoStops(t *testing.T) {
	b := ComputeBreakdown(core.Trip{ID: "t"}, nil, parisTable())
	if b.Total != (core.Money{}) || b.PerDayAverage != (core.Money{}) || b.TotalDays != 0 || len(b.Stops) != 0 {
		t.Fatalf("expected zero breakdown, got %+v", b)
	}
}

func TestComputeBreakdown_OrdersByOrderIndex(t *testing.T) {
	stops := []core.TripStop{
		stop("second", "Rome", 5, core.NewDate(2025, 6, 3), core.NewDate(2025, 6, 4)),
		stop("first", "Paris", 1, core.NewDate(2025, 6, 1), core.NewDate(2025, 6, 3)),
	}
	b := ComputeBreakdown(core.Trip{}, stops, parisTable())
	if b.Stops[0].StopID != "first" || b.Stops[1].StopID != "second" {
		t.Fatalf("stops not in order_index order: %+v", b.Stops)
	}
	if stops[0].ID != "second" {
		t.Fatal("input slice must not be reordered")
	}
}

func TestComputeBreakdown_TotalIsSumOfCategories(t *testing.T) {
	stops := []core.TripStop{
		stop("s1", "Paris", 0, core.NewDate(2025, 6, 1), core.NewDate(2025, 6, 2), core.Money{Cents: 1999}, core.Money{Cents: 1}),
		stop("s2", "Lima", 1, core.Date{}, core.Date{}, core.Dollars(7)),
		stop("s3", "Rome", 2, core.NewDate(2025, 6, 9), core.NewDate(2025, 6, 2)),
	}
	b := ComputeBreakdown(core.Trip{}, stops, parisTable())
	sum := b.Accommodation.Add(b.Food).Add(b.Transport).Add(b.Activities)
	if b.Total != sum {
		t.Fatalf("Total %s != category sum %s", b.Total, sum)
	}
	var stopSum core.Money
	for _, s := range b.Stops {
		stopSum = stopSum.Add(s.Total)
	}
	if stopSum != b.Total {
		t.Fatalf("stop totals %s != total %s", stopSum, b.Total)
	}
	if b.Activities != core.Dollars(27) {
		t.Fatalf("Activities = %s, want $27.00", b.Activities)
	}
}

func TestStopDays(t *testing.T) {
	cases := []struct {
		name       string
		start, end core.Date
		want       int
	}{
		{"three nights", core.NewDate(2025, 6, 1), core.NewDate(2025, 6, 4), 3},
		{"same day", core.NewDate(2025, 6, 1), core.NewDate(2025, 6, 1), 1},
		{"inverted", core.NewDate(2025, 6, 4), core.NewDate(2025, 6, 1), 1},
		{"missing start", core.Date{}, core.NewDate(2025, 6, 1), 1},
		{"missing both", core.Date{}, core.Date{}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StopDays(core.TripStop{StartDate: tc.start, EndDate: tc.end}); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestEstimateActivityCost(t *testing.T) {
	cases := []struct {
		min, max core.Money
		want     core.Money
	}{
		{core.Dollars(10), core.Dollars(20), core.Dollars(15)},
		{core.Dollars(20), core.Dollars(10), core.Dollars(15)},
		{core.Money{}, core.Money{}, core.Money{}},
		{core.Money{Cents: 1}, core.Money{Cents: 2}, core.Money{Cents: 2}},
	}
	for _, tc := range cases {
		got := EstimateActivityCost(core.Activity{MinCost: tc.min, MaxCost: tc.max})
		if got != tc.want {
			t.Errorf("estimate(%s, %s) = %s, want %s", tc.min, tc.max, got, tc.want)
		}
	}
}

func TestCategoriesSkipsZero(t *testing.T) {
	b := core.CostBreakdown{Accommodation: core.Dollars(10), Activities: core.Dollars(5)}
	got := Categories(b)
	if len(got) != 2 || got[0].Name != "Accommodation" || got[1].Name != "Activities" {
		t.Fatalf("unexpected categories: %+v", got)
	}
}
