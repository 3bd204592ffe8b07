package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"viaggi/internal/core"
	"viaggi/internal/costs"

	_ "modernc.org/sqlite"
)

const defaultCatalogLimit = 200

var timeNow = func() time.Time { return time.Now().UTC() }

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

func affected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (r *SQLiteRepository) CreateTrip(ctx context.Context, t core.Trip) error {
	if err := r.queries.CreateTrip(ctx, tripParams(t)); err != nil {
		return fmt.Errorf("create trip: %w", err)
	}
	slog.InfoContext(ctx, "Trip saved to SQLite", "trip_id", t.ID, "owner_id", t.OwnerID)
	return nil
}

func tripParams(t core.Trip) CreateTripParams {
	return CreateTripParams{
		ID:            t.ID,
		OwnerID:       t.OwnerID,
		Name:          t.Name,
		Description:   t.Description,
		StartDate:     t.StartDate.String(),
		EndDate:       t.EndDate.String(),
		IsPublic:      boolInt(t.IsPublic),
		PublicShareID: nullString(t.ShareID),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func stopParams(s core.TripStop) CreateStopParams {
	return CreateStopParams{
		ID:         s.ID,
		TripID:     s.TripID,
		CityName:   s.CityName,
		Country:    s.Country,
		StartDate:  nullString(s.StartDate.String()),
		EndDate:    nullString(s.EndDate.String()),
		OrderIndex: int64(s.OrderIndex),
		Notes:      s.Notes,
		CreatedAt:  s.CreatedAt,
	}
}

func tripActivityParams(a core.TripActivity) CreateTripActivityParams {
	return CreateTripActivityParams{
		ID:                 a.ID,
		TripStopID:         a.StopID,
		ActivityID:         nullString(a.ActivityID),
		CustomActivityName: a.CustomName,
		EstimatedCostCents: a.EstimatedCost.Cents,
		DurationHours:      a.DurationHours,
		Notes:              a.Notes,
		ScheduledTime:      a.ScheduledTime,
		CreatedAt:          a.CreatedAt,
	}
}

func (r *SQLiteRepository) SaveTripGraph(ctx context.Context, t core.Trip) error {
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.CreateTrip(ctx, tripParams(t)); err != nil {
			return fmt.Errorf("create trip: %w", err)
		}
		for _, s := range t.Stops {
			if err := q.CreateStop(ctx, stopParams(s)); err != nil {
				return fmt.Errorf("create stop %s: %w", s.ID, err)
			}
			for _, a := range s.Activities {
				if err := q.CreateTripActivity(ctx, tripActivityParams(a)); err != nil {
					return fmt.Errorf("create activity %s: %w", a.ID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Trip graph saved to SQLite", "trip_id", t.ID, "stops", len(t.Stops))
	return nil
}

func (r *SQLiteRepository) GetTrip(ctx context.Context, id string) (core.Trip, error) {
	row, err := r.queries.GetTrip(ctx, id)
	if err != nil {
		return core.Trip{}, fmt.Errorf("get trip %s: %w", id, notFound(err))
	}
	return r.loadItinerary(ctx, row)
}

func (r *SQLiteRepository) GetTripByShareID(ctx context.Context, shareID string) (core.Trip, error) {
	row, err := r.queries.GetTripByShareID(ctx, shareID)
	if err != nil {
		return core.Trip{}, fmt.Errorf("get shared trip: %w", notFound(err))
	}
	return r.loadItinerary(ctx, row)
}

func (r *SQLiteRepository) ListTrips(ctx context.Context, ownerID string) ([]core.Trip, error) {
	rows, err := r.queries.ListTripsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	trips := make([]core.Trip, 0, len(rows))
	for _, row := range rows {
		t, err := r.loadItinerary(ctx, row)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, nil
}

func (r *SQLiteRepository) ListTripIDs(ctx context.Context) ([]string, error) {
	ids, err := r.queries.ListTripIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trip ids: %w", err)
	}
	return ids, nil
}

// loadItinerary converts a trip row and attaches its stops and activities.
func (r *SQLiteRepository) loadItinerary(ctx context.Context, row Trip) (core.Trip, error) {
	t, err := toCoreTrip(row)
	if err != nil {
		return core.Trip{}, err
	}

	stops, err := r.queries.ListStopsByTrip(ctx, row.ID)
	if err != nil {
		return core.Trip{}, fmt.Errorf("list stops of trip %s: %w", row.ID, err)
	}
	acts, err := r.queries.ListTripActivitiesByTrip(ctx, row.ID)
	if err != nil {
		return core.Trip{}, fmt.Errorf("list activities of trip %s: %w", row.ID, err)
	}

	byStop := make(map[string][]core.TripActivity, len(stops))
	for _, a := range acts {
		byStop[a.TripStopID] = append(byStop[a.TripStopID], toCoreTripActivity(a))
	}

	t.Stops = make([]core.TripStop, 0, len(stops))
	for _, s := range stops {
		cs, err := toCoreStop(s)
		if err != nil {
			return core.Trip{}, err
		}
		cs.Activities = byStop[s.ID]
		t.Stops = append(t.Stops, cs)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTrip(ctx context.Context, t core.Trip) error {
	err := affected(r.queries.UpdateTrip(ctx, UpdateTripParams{
		Name:          t.Name,
		Description:   t.Description,
		StartDate:     t.StartDate.String(),
		EndDate:       t.EndDate.String(),
		IsPublic:      boolInt(t.IsPublic),
		PublicShareID: nullString(t.ShareID),
		UpdatedAt:     t.UpdatedAt,
		ID:            t.ID,
	}))
	if err != nil {
		return fmt.Errorf("update trip %s: %w", t.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTrip(ctx context.Context, id string) error {
	if err := affected(r.queries.DeleteTrip(ctx, id)); err != nil {
		return fmt.Errorf("delete trip %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Trip deleted from SQLite", "trip_id", id)
	return nil
}

// CreateStop inserts the stop and bumps the trip's updated_at in one
// transaction.
func (r *SQLiteRepository) CreateStop(ctx context.Context, s core.TripStop) error {
	return r.withTx(ctx, func(q *Queries) error {
		if err := q.CreateStop(ctx, stopParams(s)); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("create stop: %w", core.ErrDuplicateOrderSlot)
			}
			return fmt.Errorf("create stop: %w", err)
		}
		if err := q.TouchTrip(ctx, s.CreatedAt, s.TripID); err != nil {
			return fmt.Errorf("touch trip %s: %w", s.TripID, err)
		}
		return nil
	})
}

func (r *SQLiteRepository) GetStop(ctx context.Context, id string) (core.TripStop, error) {
	row, err := r.queries.GetStop(ctx, id)
	if err != nil {
		return core.TripStop{}, fmt.Errorf("get stop %s: %w", id, notFound(err))
	}
	return toCoreStop(row)
}

func (r *SQLiteRepository) UpdateStop(ctx context.Context, s core.TripStop) error {
	err := affected(r.queries.UpdateStop(ctx, UpdateStopParams{
		CityName:   s.CityName,
		Country:    s.Country,
		StartDate:  nullString(s.StartDate.String()),
		EndDate:    nullString(s.EndDate.String()),
		OrderIndex: int64(s.OrderIndex),
		Notes:      s.Notes,
		ID:         s.ID,
	}))
	if isUniqueViolation(err) {
		err = core.ErrDuplicateOrderSlot
	}
	if err != nil {
		return fmt.Errorf("update stop %s: %w", s.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteStop(ctx context.Context, id string) error {
	if err := affected(r.queries.DeleteStop(ctx, id)); err != nil {
		return fmt.Errorf("delete stop %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ReorderStops(ctx context.Context, tripID string, stopIDs []string) error {
	return r.withTx(ctx, func(q *Queries) error {
		current, err := q.ListStopsByTrip(ctx, tripID)
		if err != nil {
			return fmt.Errorf("list stops of trip %s: %w", tripID, err)
		}
		ids := make([]string, len(current))
		for i, s := range current {
			ids[i] = s.ID
		}
		if !isPermutation(ids, stopIDs) {
			return core.ErrInvalidStopOrder
		}

		// Move every stop to a negative slot first so the unique
		// (trip_id, order_index) constraint holds between the two passes.
		for i, id := range stopIDs {
			if err := affected(q.SetStopOrder(ctx, SetStopOrderParams{OrderIndex: int64(-(i + 1)), ID: id, TripID: tripID})); err != nil {
				return fmt.Errorf("park stop %s: %w", id, err)
			}
		}
		for i, id := range stopIDs {
			if err := affected(q.SetStopOrder(ctx, SetStopOrderParams{OrderIndex: int64(i), ID: id, TripID: tripID})); err != nil {
				return fmt.Errorf("order stop %s: %w", id, err)
			}
		}
		return nil
	})
}

// isPermutation reports whether got lists exactly the ids in want.
func isPermutation(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	seen := make(map[string]int, len(want))
	for _, id := range want {
		seen[id]++
	}
	for _, id := range got {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}

func (r *SQLiteRepository) CreateTripActivity(ctx context.Context, a core.TripActivity) error {
	if err := r.queries.CreateTripActivity(ctx, tripActivityParams(a)); err != nil {
		return fmt.Errorf("create trip activity: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTripActivity(ctx context.Context, id string) (core.TripActivity, error) {
	row, err := r.queries.GetTripActivity(ctx, id)
	if err != nil {
		return core.TripActivity{}, fmt.Errorf("get trip activity %s: %w", id, notFound(err))
	}
	return toCoreTripActivity(row), nil
}

func (r *SQLiteRepository) DeleteTripActivity(ctx context.Context, id string) error {
	if err := affected(r.queries.DeleteTripActivity(ctx, id)); err != nil {
		return fmt.Errorf("delete trip activity %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListCatalog(ctx context.Context, f CatalogFilter) ([]core.Activity, error) {
	limit := int64(f.Limit)
	if limit <= 0 {
		limit = defaultCatalogLimit
	}
	rows, err := r.queries.ListActivities(ctx, ListActivitiesParams{
		Type:  string(f.Type),
		Query: strings.TrimSpace(f.Query),
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	out := make([]core.Activity, len(rows))
	for i, a := range rows {
		out[i] = toCoreActivity(a)
	}
	return out, nil
}

func (r *SQLiteRepository) GetCatalogActivity(ctx context.Context, id string) (core.Activity, error) {
	row, err := r.queries.GetActivity(ctx, id)
	if err != nil {
		return core.Activity{}, fmt.Errorf("get catalog activity %s: %w", id, notFound(err))
	}
	return toCoreActivity(row), nil
}

func (r *SQLiteRepository) ListCityRates(ctx context.Context) ([]core.CityRates, error) {
	rows, err := r.queries.ListCityCosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list city costs: %w", err)
	}
	out := make([]core.CityRates, len(rows))
	for i, c := range rows {
		out[i] = core.CityRates{
			City:          c.CityName,
			Country:       c.Country,
			Accommodation: core.Money{Cents: c.AccommodationCents},
			Food:          core.Money{Cents: c.FoodCents},
			Transport:     core.Money{Cents: c.TransportCents},
			CostIndex:     c.CostIndex,
		}
	}
	return out, nil
}

func (r *SQLiteRepository) UpsertCityRates(ctx context.Context, c core.CityRates) error {
	err := r.queries.UpsertCityCost(ctx, UpsertCityCostParams{
		CityKey:            costs.NormalizeCity(c.City),
		CityName:           strings.TrimSpace(c.City),
		Country:            c.Country,
		AccommodationCents: c.Accommodation.Cents,
		FoodCents:          c.Food.Cents,
		TransportCents:     c.Transport.Cents,
		CostIndex:          c.CostIndex,
		UpdatedAt:          timeNow(),
	})
	if err != nil {
		return fmt.Errorf("upsert city cost %s: %w", c.City, err)
	}
	slog.InfoContext(ctx, "City rates saved", "city", c.City)
	return nil
}

func toCoreTrip(row Trip) (core.Trip, error) {
	start, err := core.ParseDate(row.StartDate)
	if err != nil {
		return core.Trip{}, err
	}
	end, err := core.ParseDate(row.EndDate)
	if err != nil {
		return core.Trip{}, err
	}
	return core.Trip{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Name:        row.Name,
		Description: row.Description,
		StartDate:   start,
		EndDate:     end,
		IsPublic:    row.IsPublic != 0,
		ShareID:     row.PublicShareID.String,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func toCoreStop(row TripStop) (core.TripStop, error) {
	start, err := core.ParseDate(row.StartDate.String)
	if err != nil {
		return core.TripStop{}, err
	}
	end, err := core.ParseDate(row.EndDate.String)
	if err != nil {
		return core.TripStop{}, err
	}
	return core.TripStop{
		ID:         row.ID,
		TripID:     row.TripID,
		CityName:   row.CityName,
		Country:    row.Country,
		StartDate:  start,
		EndDate:    end,
		OrderIndex: int(row.OrderIndex),
		Notes:      row.Notes,
		CreatedAt:  row.CreatedAt,
	}, nil
}

func toCoreTripActivity(row TripActivity) core.TripActivity {
	return core.TripActivity{
		ID:            row.ID,
		StopID:        row.TripStopID,
		ActivityID:    row.ActivityID.String,
		CustomName:    row.CustomActivityName,
		EstimatedCost: core.Money{Cents: row.EstimatedCostCents},
		DurationHours: row.DurationHours,
		Notes:         row.Notes,
		ScheduledTime: row.ScheduledTime,
		CreatedAt:     row.CreatedAt,
	}
}

func toCoreActivity(row Activity) core.Activity {
	return core.Activity{
		ID:                   row.ID,
		Name:                 row.Name,
		Type:                 core.ActivityType(row.Type),
		Description:          row.Description,
		TypicalDurationHours: row.TypicalDurationHours,
		MinCost:              core.Money{Cents: row.MinCostCents},
		MaxCost:              core.Money{Cents: row.MaxCostCents},
	}
}
