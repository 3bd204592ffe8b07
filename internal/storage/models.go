package storage

import (
	"database/sql"
	"time"
)

type Trip struct {
	ID            string
	OwnerID       string
	Name          string
	Description   string
	StartDate     string
	EndDate       string
	IsPublic      int64
	PublicShareID sql.NullString
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type TripStop struct {
	ID         string
	TripID     string
	CityName   string
	Country    string
	StartDate  sql.NullString
	EndDate    sql.NullString
	OrderIndex int64
	Notes      string
	CreatedAt  time.Time
}

type TripActivity struct {
	ID                 string
	TripStopID         string
	ActivityID         sql.NullString
	CustomActivityName string
	EstimatedCostCents int64
	DurationHours      float64
	Notes              string
	ScheduledTime      string
	CreatedAt          time.Time
}

type Activity struct {
	ID                   string
	Name                 string
	Type                 string
	Description          string
	TypicalDurationHours float64
	MinCostCents         int64
	MaxCostCents         int64
}

type CityCost struct {
	CityKey            string
	CityName           string
	Country            string
	AccommodationCents int64
	FoodCents          int64
	TransportCents     int64
	CostIndex          float64
}
