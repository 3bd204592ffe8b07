package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Sightseeing   ActivityType = "sightseeing"
	Culture       ActivityType = "culture"
	Food          ActivityType = "food"
	Adventure     ActivityType = "adventure"
	Entertainment ActivityType = "entertainment"
	Nightlife     ActivityType = "nightlife"
	Wellness      ActivityType = "wellness"
	Water         ActivityType = "water"
	Shopping      ActivityType = "shopping"
	Nature        ActivityType = "nature"
	DayTrip       ActivityType = "daytrip"
	Unique        ActivityType = "unique"
)

// ActivityTypes lists every catalog activity type in display order.
var ActivityTypes = []ActivityType{
	Sightseeing, Culture, Food, Adventure, Entertainment, Nightlife,
	Wellness, Water, Shopping, Nature, DayTrip, Unique,
}

const (
	MaxNameLength  = 200
	MaxNotesLength = 2000
)

type (
	ActivityType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Trip is the root aggregate. Stops are populated by the repository when
	// the trip is loaded with its itinerary and are kept in order_index order.
	Trip struct {
		ID          string
		OwnerID     string
		Name        string
		Description string
		StartDate   Date
		EndDate     Date
		IsPublic    bool
		ShareID     string
		CreatedAt   time.Time
		UpdatedAt   time.Time
		Stops       []TripStop
	}

	TripStop struct {
		ID         string
		TripID     string
		CityName   string
		Country    string
		StartDate  Date
		EndDate    Date
		OrderIndex int
		Notes      string
		CreatedAt  time.Time
		Activities []TripActivity
	}

	// TripActivity is an activity attached to a stop, either picked from the
	// catalog (ActivityID) or entered by hand (CustomName).
	TripActivity struct {
		ID            string
		StopID        string
		ActivityID    string
		CustomName    string
		EstimatedCost Money
		DurationHours float64
		Notes         string
		ScheduledTime string // HH:MM, optional
		CreatedAt     time.Time
	}

	// Activity is a read-only catalog entry.
	Activity struct {
		ID                   string
		Name                 string
		Type                 ActivityType
		Description          string
		TypicalDurationHours float64
		MinCost              Money
		MaxCost              Money
	}

	// CityRates holds the per-day baseline costs for one city.
	CityRates struct {
		City          string
		Country       string
		Accommodation Money
		Food          Money
		Transport     Money
		CostIndex     float64
	}

	// StopCost is the cost of a single stop inside a breakdown.
	StopCost struct {
		StopID        string
		City          string
		Days          int
		Accommodation Money
		Food          Money
		Transport     Money
		Activities    Money
		Total         Money
		FallbackRate  bool
	}

	CostBreakdown struct {
		TripID        string
		Accommodation Money
		Food          Money
		Transport     Money
		Activities    Money
		Total         Money
		PerDayAverage Money
		TotalDays     int
		Stops         []StopCost
	}
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyName          = errors.New("empty name")
	ErrNameTooLong        = fmt.Errorf("name too long (max %d characters)", MaxNameLength)
	ErrNotesTooLong       = fmt.Errorf("notes too long (max %d characters)", MaxNotesLength)
	ErrEmptyCity          = errors.New("empty city name")
	ErrDateRange          = errors.New("end date must not be before start date")
	ErrMissingActivity    = errors.New("either a catalog activity or a custom name is required")
	ErrInvalidType        = errors.New("invalid activity type")
	ErrInvalidCostRange   = errors.New("minimum cost exceeds maximum cost")
	ErrInvalidDuration    = errors.New("invalid duration")
	ErrInvalidTime        = errors.New("invalid scheduled time")
	ErrInvalidStopOrder   = errors.New("stop order must list every stop of the trip exactly once")
	ErrDuplicateOrderSlot = errors.New("order index already used in this trip")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date (2006-01-02). An empty string yields
// the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String renders the date as 2006-01-02, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// DaysUntil returns the whole calendar days from d to end. It is negative when
// end is before d.
func (d Date) DaysUntil(end Date) int {
	a := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func (t ActivityType) Valid() bool {
	for _, at := range ActivityTypes {
		if at == t {
			return true
		}
	}
	return false
}

func validateRange(start, end Date) error {
	if start.IsZero() || end.IsZero() {
		return nil
	}
	if end.Before(start.Time) {
		return ErrDateRange
	}
	return nil
}

func (t Trip) Validate() error {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if err := t.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if err := t.EndDate.Validate(); err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}
	if err := validateRange(t.StartDate, t.EndDate); err != nil {
		return err
	}
	if len(t.Description) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

func (s TripStop) Validate() error {
	city := strings.TrimSpace(s.CityName)
	if city == "" {
		return ErrEmptyCity
	}
	if len(city) > MaxNameLength {
		return ErrNameTooLong
	}
	if err := validateRange(s.StartDate, s.EndDate); err != nil {
		return err
	}
	if s.OrderIndex < 0 {
		return errors.New("order index cannot be negative")
	}
	if len(s.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

func (a TripActivity) Validate() error {
	if strings.TrimSpace(a.ActivityID) == "" && strings.TrimSpace(a.CustomName) == "" {
		return ErrMissingActivity
	}
	if len(a.CustomName) > MaxNameLength {
		return ErrNameTooLong
	}
	if err := a.EstimatedCost.Validate(); err != nil {
		return err
	}
	if a.DurationHours < 0 || a.DurationHours > 24 {
		return ErrInvalidDuration
	}
	if a.ScheduledTime != "" {
		if _, err := time.Parse("15:04", a.ScheduledTime); err != nil {
			return ErrInvalidTime
		}
	}
	if len(a.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// DisplayName returns the custom name when set, otherwise the catalog name.
func (a TripActivity) DisplayName(catalog *Activity) string {
	if strings.TrimSpace(a.CustomName) != "" {
		return a.CustomName
	}
	if catalog != nil {
		return catalog.Name
	}
	return a.ActivityID
}

func (a Activity) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.Valid() {
		return ErrInvalidType
	}
	if err := a.MinCost.Validate(); err != nil {
		return err
	}
	if err := a.MaxCost.Validate(); err != nil {
		return err
	}
	if a.MinCost.Cents > a.MaxCost.Cents {
		return ErrInvalidCostRange
	}
	return nil
}

func (r CityRates) Validate() error {
	if strings.TrimSpace(r.City) == "" {
		return ErrEmptyCity
	}
	for _, m := range []Money{r.Accommodation, r.Food, r.Transport} {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Cities returns the distinct city names of the trip's stops, in stop order.
func (t Trip) Cities() []string {
	seen := make(map[string]bool, len(t.Stops))
	var out []string
	for _, s := range t.Stops {
		key := strings.ToLower(strings.TrimSpace(s.CityName))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s.CityName)
	}
	return out
}

type TripStatus string

const (
	StatusUpcoming  TripStatus = "upcoming"
	StatusOngoing   TripStatus = "ongoing"
	StatusCompleted TripStatus = "completed"
)

// Status places the trip relative to now. A trip is ongoing from its start
// date through the whole of its end date.
func (t Trip) Status(now time.Time) TripStatus {
	today := NewDate(now.Year(), int(now.Month()), now.Day())
	switch {
	case today.Before(t.StartDate.Time):
		return StatusUpcoming
	case !t.EndDate.IsZero() && today.After(t.EndDate.Time):
		return StatusCompleted
	default:
		return StatusOngoing
	}
}
