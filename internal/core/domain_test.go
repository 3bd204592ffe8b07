package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDaysUntil(t *testing.T) {
	cases := []struct {
		start, end Date
		want       int
	}{
		{NewDate(2025, 6, 1), NewDate(2025, 6, 4), 3},
		{NewDate(2025, 6, 1), NewDate(2025, 6, 1), 0},
		{NewDate(2025, 2, 27), NewDate(2025, 3, 2), 3},
		{NewDate(2025, 6, 4), NewDate(2025, 6, 1), -3},
		{NewDate(2024, 12, 30), NewDate(2025, 1, 2), 3},
	}
	for _, tc := range cases {
		if got := tc.start.DaysUntil(tc.end); got != tc.want {
			t.Errorf("%s -> %s: got %d, want %d", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-06-01" {
		t.Fatalf("round trip mismatch: %s", d)
	}
	if d, err := ParseDate(""); err != nil || !d.IsZero() {
		t.Fatalf("empty should give zero date, got %v %v", d, err)
	}
	if _, err := ParseDate("01/06/2025"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}

func TestTripValidate(t *testing.T) {
	good := Trip{Name: "Summer in France", StartDate: NewDate(2025, 6, 1), EndDate: NewDate(2025, 6, 10)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		trip Trip
		want error
	}{
		{"empty name", Trip{Name: "  ", StartDate: NewDate(2025, 6, 1), EndDate: NewDate(2025, 6, 2)}, ErrEmptyName},
		{"long name", Trip{Name: strings.Repeat("x", MaxNameLength+1), StartDate: NewDate(2025, 6, 1), EndDate: NewDate(2025, 6, 2)}, ErrNameTooLong},
		{"inverted", Trip{Name: "a", StartDate: NewDate(2025, 6, 5), EndDate: NewDate(2025, 6, 2)}, ErrDateRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.trip.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	if err := (Trip{Name: "a", EndDate: NewDate(2025, 6, 2)}).Validate(); err == nil {
		t.Fatal("expected error for missing start date")
	}
}

func TestTripStopValidate(t *testing.T) {
	if err := (TripStop{CityName: "Paris"}).Validate(); err != nil {
		t.Fatalf("stop without dates should be valid, got %v", err)
	}
	if err := (TripStop{}).Validate(); !errors.Is(err, ErrEmptyCity) {
		t.Fatalf("got %v, want ErrEmptyCity", err)
	}
	inverted := TripStop{CityName: "Rome", StartDate: NewDate(2025, 6, 3), EndDate: NewDate(2025, 6, 1)}
	if err := inverted.Validate(); !errors.Is(err, ErrDateRange) {
		t.Fatalf("got %v, want ErrDateRange", err)
	}
}

func TestTripActivityValidate(t *testing.T) {
	cases := []struct {
		name string
		act  TripActivity
		want error
	}{
		{"catalog", TripActivity{ActivityID: "louvre-museum", EstimatedCost: Dollars(22)}, nil},
		{"custom free", TripActivity{CustomName: "Picnic"}, nil},
		{"neither", TripActivity{EstimatedCost: Dollars(5)}, ErrMissingActivity},
		{"negative", TripActivity{CustomName: "x", EstimatedCost: Money{Cents: -1}}, ErrInvalidAmount},
		{"duration", TripActivity{CustomName: "x", DurationHours: 25}, ErrInvalidDuration},
		{"time", TripActivity{CustomName: "x", ScheduledTime: "25:00"}, ErrInvalidTime},
		{"time ok", TripActivity{CustomName: "x", ScheduledTime: "09:30"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.act.Validate()
			if tc.want == nil && err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestActivityValidate(t *testing.T) {
	good := Activity{Name: "Louvre", Type: Culture, MinCost: Dollars(17), MaxCost: Dollars(22)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.Type = "skydiving"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("got %v, want ErrInvalidType", err)
	}
	bad = good
	bad.MinCost = Dollars(30)
	if err := bad.Validate(); !errors.Is(err, ErrInvalidCostRange) {
		t.Fatalf("got %v, want ErrInvalidCostRange", err)
	}
}

func TestTripCities(t *testing.T) {
	trip := Trip{Stops: []TripStop{
		{CityName: "Paris"}, {CityName: "Rome"}, {CityName: "paris "}, {CityName: ""},
	}}
	got := trip.Cities()
	if len(got) != 2 || got[0] != "Paris" || got[1] != "Rome" {
		t.Fatalf("unexpected cities: %v", got)
	}
}

func TestDisplayName(t *testing.T) {
	cat := &Activity{ID: "louvre-museum", Name: "Louvre Museum"}
	if got := (TripActivity{ActivityID: "louvre-museum"}).DisplayName(cat); got != "Louvre Museum" {
		t.Fatalf("got %q", got)
	}
	if got := (TripActivity{ActivityID: "louvre-museum", CustomName: "Night at the Louvre"}).DisplayName(cat); got != "Night at the Louvre" {
		t.Fatalf("got %q", got)
	}
}

func TestTripStatus(t *testing.T) {
	trip := Trip{StartDate: NewDate(2024, 6, 1), EndDate: NewDate(2024, 6, 5)}
	tests := []struct {
		now  time.Time
		want TripStatus
	}{
		{time.Date(2024, 5, 31, 23, 0, 0, 0, time.UTC), StatusUpcoming},
		{time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC), StatusOngoing},
		{time.Date(2024, 6, 5, 22, 0, 0, 0, time.UTC), StatusOngoing},
		{time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC), StatusCompleted},
	}
	for _, tt := range tests {
		if got := trip.Status(tt.now); got != tt.want {
			t.Errorf("Status(%v) = %s, want %s", tt.now, got, tt.want)
		}
	}
}
