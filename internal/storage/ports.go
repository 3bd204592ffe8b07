package storage

import (
	"context"

	"viaggi/internal/core"
)

// Ports implemented by the SQLite repository and the in-memory store.
type (
	// TripStore persists trips with their stops and activities. Get and List
	// return trips with Stops (ordered by OrderIndex) and their Activities
	// populated. Lookups of unknown ids return core.ErrNotFound.
	TripStore interface {
		CreateTrip(ctx context.Context, t core.Trip) error
		// SaveTripGraph inserts a trip together with its stops and activities
		// atomically.
		SaveTripGraph(ctx context.Context, t core.Trip) error
		GetTrip(ctx context.Context, id string) (core.Trip, error)
		GetTripByShareID(ctx context.Context, shareID string) (core.Trip, error)
		ListTrips(ctx context.Context, ownerID string) ([]core.Trip, error)
		// ListTripIDs returns the id of every trip, oldest first.
		ListTripIDs(ctx context.Context) ([]string, error)
		UpdateTrip(ctx context.Context, t core.Trip) error
		DeleteTrip(ctx context.Context, id string) error

		CreateStop(ctx context.Context, s core.TripStop) error
		GetStop(ctx context.Context, id string) (core.TripStop, error)
		UpdateStop(ctx context.Context, s core.TripStop) error
		DeleteStop(ctx context.Context, id string) error
		// ReorderStops assigns order indexes 0..n-1 following stopIDs.
		ReorderStops(ctx context.Context, tripID string, stopIDs []string) error

		CreateTripActivity(ctx context.Context, a core.TripActivity) error
		GetTripActivity(ctx context.Context, id string) (core.TripActivity, error)
		DeleteTripActivity(ctx context.Context, id string) error
	}

	// CatalogReader gives read access to the activity catalog.
	CatalogReader interface {
		ListCatalog(ctx context.Context, f CatalogFilter) ([]core.Activity, error)
		GetCatalogActivity(ctx context.Context, id string) (core.Activity, error)
	}

	// RateStore holds city rates added on top of the built-in table.
	RateStore interface {
		ListCityRates(ctx context.Context) ([]core.CityRates, error)
		UpsertCityRates(ctx context.Context, r core.CityRates) error
	}

	// Repository is the full persistence surface used by the services.
	Repository interface {
		TripStore
		CatalogReader
		RateStore
		Ping(ctx context.Context) error
		Close() error
	}
)

// CatalogFilter narrows a catalog listing. Query matches a case-insensitive
// substring of the name; an empty Type matches every type.
type CatalogFilter struct {
	Query string
	Type  core.ActivityType
	Limit int
}
