package http

import (
	"time"

	"viaggi/internal/core"
	"viaggi/internal/costs"
	"viaggi/internal/services"
)

// moneyView carries both the exact amount and its display form.
type moneyView struct {
	Cents     int64  `json:"cents"`
	Formatted string `json:"formatted"`
}

func money(m core.Money) moneyView {
	return moneyView{Cents: m.Cents, Formatted: core.FormatCurrency(m)}
}

func dateString(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

type tripView struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Status      string     `json:"status"`
	IsPublic    bool       `json:"is_public"`
	ShareID     string     `json:"share_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Stops       []stopView `json:"stops"`
}

type stopView struct {
	ID         string         `json:"id"`
	TripID     string         `json:"trip_id"`
	CityName   string         `json:"city_name"`
	Country    string         `json:"country,omitempty"`
	StartDate  string         `json:"start_date,omitempty"`
	EndDate    string         `json:"end_date,omitempty"`
	OrderIndex int            `json:"order_index"`
	Notes      string         `json:"notes,omitempty"`
	Activities []activityView `json:"activities"`
}

type activityView struct {
	ID            string    `json:"id"`
	StopID        string    `json:"stop_id"`
	ActivityID    string    `json:"activity_id,omitempty"`
	CustomName    string    `json:"custom_name,omitempty"`
	EstimatedCost moneyView `json:"estimated_cost"`
	DurationHours float64   `json:"duration_hours,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	ScheduledTime string    `json:"scheduled_time,omitempty"`
}

func newTripView(t core.Trip, now time.Time) tripView {
	v := tripView{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Name:        t.Name,
		Description: t.Description,
		StartDate:   dateString(t.StartDate),
		EndDate:     dateString(t.EndDate),
		Status:      string(t.Status(now)),
		IsPublic:    t.IsPublic,
		ShareID:     t.ShareID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Stops:       make([]stopView, 0, len(t.Stops)),
	}
	for _, s := range t.Stops {
		v.Stops = append(v.Stops, newStopView(s))
	}
	return v
}

func newStopView(s core.TripStop) stopView {
	v := stopView{
		ID:         s.ID,
		TripID:     s.TripID,
		CityName:   s.CityName,
		Country:    s.Country,
		StartDate:  dateString(s.StartDate),
		EndDate:    dateString(s.EndDate),
		OrderIndex: s.OrderIndex,
		Notes:      s.Notes,
		Activities: make([]activityView, 0, len(s.Activities)),
	}
	for _, a := range s.Activities {
		v.Activities = append(v.Activities, newActivityView(a))
	}
	return v
}

func newActivityView(a core.TripActivity) activityView {
	return activityView{
		ID:            a.ID,
		StopID:        a.StopID,
		ActivityID:    a.ActivityID,
		CustomName:    a.CustomName,
		EstimatedCost: money(a.EstimatedCost),
		DurationHours: a.DurationHours,
		Notes:         a.Notes,
		ScheduledTime: a.ScheduledTime,
	}
}

type stopCostView struct {
	StopID        string    `json:"stop_id"`
	City          string    `json:"city"`
	Days          int       `json:"days"`
	Accommodation moneyView `json:"accommodation"`
	Food          moneyView `json:"food"`
	Transport     moneyView `json:"transport"`
	Activities    moneyView `json:"activities"`
	Total         moneyView `json:"total"`
	FallbackRate  bool      `json:"fallback_rate"`
}

type categoryView struct {
	Name   string    `json:"name"`
	Amount moneyView `json:"amount"`
}

type breakdownView struct {
	TripID        string         `json:"trip_id"`
	Accommodation moneyView      `json:"accommodation"`
	Food          moneyView      `json:"food"`
	Transport     moneyView      `json:"transport"`
	Activities    moneyView      `json:"activities"`
	Total         moneyView      `json:"total"`
	PerDayAverage moneyView      `json:"per_day_average"`
	TotalDays     int            `json:"total_days"`
	Categories    []categoryView `json:"categories"`
	Stops         []stopCostView `json:"stops"`
}

func newBreakdownView(b core.CostBreakdown) breakdownView {
	v := breakdownView{
		TripID:        b.TripID,
		Accommodation: money(b.Accommodation),
		Food:          money(b.Food),
		Transport:     money(b.Transport),
		Activities:    money(b.Activities),
		Total:         money(b.Total),
		PerDayAverage: money(b.PerDayAverage),
		TotalDays:     b.TotalDays,
		Categories:    []categoryView{},
		Stops:         make([]stopCostView, 0, len(b.Stops)),
	}
	for _, c := range costs.Categories(b) {
		v.Categories = append(v.Categories, categoryView{Name: c.Name, Amount: money(c.Amount)})
	}
	for _, s := range b.Stops {
		v.Stops = append(v.Stops, stopCostView{
			StopID:        s.StopID,
			City:          s.City,
			Days:          s.Days,
			Accommodation: money(s.Accommodation),
			Food:          money(s.Food),
			Transport:     money(s.Transport),
			Activities:    money(s.Activities),
			Total:         money(s.Total),
			FallbackRate:  s.FallbackRate,
		})
	}
	return v
}

type sharedTripView struct {
	Trip      tripView      `json:"trip"`
	Breakdown breakdownView `json:"breakdown"`
}

type catalogView struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Type                 string    `json:"type"`
	Description          string    `json:"description,omitempty"`
	TypicalDurationHours float64   `json:"typical_duration_hours,omitempty"`
	MinCost              moneyView `json:"min_cost"`
	MaxCost              moneyView `json:"max_cost"`
}

func newCatalogView(a core.Activity) catalogView {
	return catalogView{
		ID:                   a.ID,
		Name:                 a.Name,
		Type:                 string(a.Type),
		Description:          a.Description,
		TypicalDurationHours: a.TypicalDurationHours,
		MinCost:              money(a.MinCost),
		MaxCost:              money(a.MaxCost),
	}
}

type estimateView struct {
	ActivityID string    `json:"activity_id"`
	Name       string    `json:"name"`
	MinCost    moneyView `json:"min_cost"`
	MaxCost    moneyView `json:"max_cost"`
	Estimate   moneyView `json:"estimate"`
}

type rateView struct {
	City          string    `json:"city"`
	Country       string    `json:"country,omitempty"`
	Accommodation moneyView `json:"accommodation"`
	Food          moneyView `json:"food"`
	Transport     moneyView `json:"transport"`
	PerDay        moneyView `json:"per_day"`
	CostIndex     float64   `json:"cost_index,omitempty"`
}

func newRateView(r core.CityRates) rateView {
	return rateView{
		City:          r.City,
		Country:       r.Country,
		Accommodation: money(r.Accommodation),
		Food:          money(r.Food),
		Transport:     money(r.Transport),
		PerDay:        money(r.Accommodation.Add(r.Food).Add(r.Transport)),
		CostIndex:     r.CostIndex,
	}
}

// storedRateView answers a rate upsert: the stored row plus the rate the
// engine applies, which differs when a TOML override covers the city.
type storedRateView struct {
	rateView
	Effective  rateView `json:"effective"`
	Overridden bool     `json:"overridden"`
}

func newStoredRateView(stored, effective core.CityRates) storedRateView {
	return storedRateView{
		rateView:   newRateView(stored),
		Effective:  newRateView(effective),
		Overridden: stored.Accommodation != effective.Accommodation || stored.Food != effective.Food || stored.Transport != effective.Transport,
	}
}

type ratesView struct {
	Default rateView   `json:"default"`
	Cities  []rateView `json:"cities"`
}

type statsView struct {
	TotalTrips     int       `json:"total_trips"`
	UpcomingTrips  int       `json:"upcoming_trips"`
	CitiesExplored int       `json:"cities_explored"`
	TotalBudget    moneyView `json:"total_budget"`
	DaysPlanned    int       `json:"days_planned"`
}

func newStatsView(s services.TripStats) statsView {
	return statsView{
		TotalTrips:     s.TotalTrips,
		UpcomingTrips:  s.UpcomingTrips,
		CitiesExplored: s.CitiesExplored,
		TotalBudget:    money(s.TotalBudget),
		DaysPlanned:    s.DaysPlanned,
	}
}
