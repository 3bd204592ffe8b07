package storage

import (
	"context"
	"database/sql"
	"time"
)

const tripColumns = `id, owner_id, name, description, start_date, end_date, is_public, public_share_id, created_at, updated_at`

func scanTrip(row interface{ Scan(...interface{}) error }) (Trip, error) {
	var i Trip
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Name,
		&i.Description,
		&i.StartDate,
		&i.EndDate,
		&i.IsPublic,
		&i.PublicShareID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createTrip = `-- name: CreateTrip :exec
INSERT INTO trips (id, owner_id, name, description, start_date, end_date, is_public, public_share_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateTripParams struct {
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

func (q *Queries) CreateTrip(ctx context.Context, arg CreateTripParams) error {
	_, err := q.db.ExecContext(ctx, createTrip,
		arg.ID,
		arg.OwnerID,
		arg.Name,
		arg.Description,
		arg.StartDate,
		arg.EndDate,
		arg.IsPublic,
		arg.PublicShareID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getTrip = `-- name: GetTrip :one
SELECT ` + tripColumns + ` FROM trips WHERE id = ?
`

func (q *Queries) GetTrip(ctx context.Context, id string) (Trip, error) {
	return scanTrip(q.db.QueryRowContext(ctx, getTrip, id))
}

const getTripByShareID = `-- name: GetTripByShareID :one
SELECT ` + tripColumns + ` FROM trips WHERE public_share_id = ? AND is_public = 1
`

func (q *Queries) GetTripByShareID(ctx context.Context, shareID string) (Trip, error) {
	return scanTrip(q.db.QueryRowContext(ctx, getTripByShareID, shareID))
}

const listTripsByOwner = `-- name: ListTripsByOwner :many
SELECT ` + tripColumns + ` FROM trips WHERE owner_id = ? ORDER BY start_date, created_at
`

func (q *Queries) ListTripsByOwner(ctx context.Context, ownerID string) ([]Trip, error) {
	rows, err := q.db.QueryContext(ctx, listTripsByOwner, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Trip
	for rows.Next() {
		i, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTripIDs = `-- name: ListTripIDs :many
SELECT id FROM trips ORDER BY created_at, id
`

func (q *Queries) ListTripIDs(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listTripIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateTrip = `-- name: UpdateTrip :execrows
UPDATE trips
SET name = ?, description = ?, start_date = ?, end_date = ?, is_public = ?, public_share_id = ?, updated_at = ?
WHERE id = ?
`

type UpdateTripParams struct {
	Name          string
	Description   string
	StartDate     string
	EndDate       string
	IsPublic      int64
	PublicShareID sql.NullString
	UpdatedAt     time.Time
	ID            string
}

func (q *Queries) UpdateTrip(ctx context.Context, arg UpdateTripParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTrip,
		arg.Name,
		arg.Description,
		arg.StartDate,
		arg.EndDate,
		arg.IsPublic,
		arg.PublicShareID,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTrip = `-- name: DeleteTrip :execrows
DELETE FROM trips WHERE id = ?
`

func (q *Queries) DeleteTrip(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTrip, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const stopColumns = `id, trip_id, city_name, country, start_date, end_date, order_index, notes, created_at`

func scanStop(row interface{ Scan(...interface{}) error }) (TripStop, error) {
	var i TripStop
	err := row.Scan(
		&i.ID,
		&i.TripID,
		&i.CityName,
		&i.Country,
		&i.StartDate,
		&i.EndDate,
		&i.OrderIndex,
		&i.Notes,
		&i.CreatedAt,
	)
	return i, err
}

const createStop = `-- name: CreateStop :exec
INSERT INTO trip_stops (id, trip_id, city_name, country, start_date, end_date, order_index, notes, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateStopParams struct {
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

func (q *Queries) CreateStop(ctx context.Context, arg CreateStopParams) error {
	_, err := q.db.ExecContext(ctx, createStop,
		arg.ID,
		arg.TripID,
		arg.CityName,
		arg.Country,
		arg.StartDate,
		arg.EndDate,
		arg.OrderIndex,
		arg.Notes,
		arg.CreatedAt,
	)
	return err
}

const getStop = `-- name: GetStop :one
SELECT ` + stopColumns + ` FROM trip_stops WHERE id = ?
`

func (q *Queries) GetStop(ctx context.Context, id string) (TripStop, error) {
	return scanStop(q.db.QueryRowContext(ctx, getStop, id))
}

const listStopsByTrip = `-- name: ListStopsByTrip :many
SELECT ` + stopColumns + ` FROM trip_stops WHERE trip_id = ? ORDER BY order_index
`

func (q *Queries) ListStopsByTrip(ctx context.Context, tripID string) ([]TripStop, error) {
	rows, err := q.db.QueryContext(ctx, listStopsByTrip, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TripStop
	for rows.Next() {
		i, err := scanStop(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateStop = `-- name: UpdateStop :execrows
UPDATE trip_stops
SET city_name = ?, country = ?, start_date = ?, end_date = ?, order_index = ?, notes = ?
WHERE id = ?
`

type UpdateStopParams struct {
	CityName   string
	Country    string
	StartDate  sql.NullString
	EndDate    sql.NullString
	OrderIndex int64
	Notes      string
	ID         string
}

func (q *Queries) UpdateStop(ctx context.Context, arg UpdateStopParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateStop,
		arg.CityName,
		arg.Country,
		arg.StartDate,
		arg.EndDate,
		arg.OrderIndex,
		arg.Notes,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const setStopOrder = `-- name: SetStopOrder :execrows
UPDATE trip_stops SET order_index = ? WHERE id = ? AND trip_id = ?
`

type SetStopOrderParams struct {
	OrderIndex int64
	ID         string
	TripID     string
}

func (q *Queries) SetStopOrder(ctx context.Context, arg SetStopOrderParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setStopOrder, arg.OrderIndex, arg.ID, arg.TripID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteStop = `-- name: DeleteStop :execrows
DELETE FROM trip_stops WHERE id = ?
`

func (q *Queries) DeleteStop(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteStop, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const touchTrip = `-- name: TouchTrip :exec
UPDATE trips SET updated_at = ? WHERE id = ?
`

func (q *Queries) TouchTrip(ctx context.Context, updatedAt time.Time, id string) error {
	_, err := q.db.ExecContext(ctx, touchTrip, updatedAt, id)
	return err
}

const tripActivityColumns = `ta.id, ta.trip_stop_id, ta.activity_id, ta.custom_activity_name, ta.estimated_cost_cents, ta.duration_hours, ta.notes, ta.scheduled_time, ta.created_at`

func scanTripActivity(row interface{ Scan(...interface{}) error }) (TripActivity, error) {
	var i TripActivity
	err := row.Scan(
		&i.ID,
		&i.TripStopID,
		&i.ActivityID,
		&i.CustomActivityName,
		&i.EstimatedCostCents,
		&i.DurationHours,
		&i.Notes,
		&i.ScheduledTime,
		&i.CreatedAt,
	)
	return i, err
}

const createTripActivity = `-- name: CreateTripActivity :exec
INSERT INTO trip_activities (id, trip_stop_id, activity_id, custom_activity_name, estimated_cost_cents, duration_hours, notes, scheduled_time, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateTripActivityParams struct {
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

func (q *Queries) CreateTripActivity(ctx context.Context, arg CreateTripActivityParams) error {
	_, err := q.db.ExecContext(ctx, createTripActivity,
		arg.ID,
		arg.TripStopID,
		arg.ActivityID,
		arg.CustomActivityName,
		arg.EstimatedCostCents,
		arg.DurationHours,
		arg.Notes,
		arg.ScheduledTime,
		arg.CreatedAt,
	)
	return err
}

const getTripActivity = `-- name: GetTripActivity :one
SELECT ` + tripActivityColumns + ` FROM trip_activities ta WHERE ta.id = ?
`

func (q *Queries) GetTripActivity(ctx context.Context, id string) (TripActivity, error) {
	return scanTripActivity(q.db.QueryRowContext(ctx, getTripActivity, id))
}

const listTripActivitiesByTrip = `-- name: ListTripActivitiesByTrip :many
SELECT ` + tripActivityColumns + `
FROM trip_activities ta
JOIN trip_stops ts ON ts.id = ta.trip_stop_id
WHERE ts.trip_id = ?
ORDER BY ts.order_index, ta.scheduled_time, ta.created_at
`

func (q *Queries) ListTripActivitiesByTrip(ctx context.Context, tripID string) ([]TripActivity, error) {
	rows, err := q.db.QueryContext(ctx, listTripActivitiesByTrip, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TripActivity
	for rows.Next() {
		i, err := scanTripActivity(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteTripActivity = `-- name: DeleteTripActivity :execrows
DELETE FROM trip_activities WHERE id = ?
`

func (q *Queries) DeleteTripActivity(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTripActivity, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const activityColumns = `id, name, type, description, typical_duration_hours, min_cost_cents, max_cost_cents`

func scanActivity(row interface{ Scan(...interface{}) error }) (Activity, error) {
	var i Activity
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Type,
		&i.Description,
		&i.TypicalDurationHours,
		&i.MinCostCents,
		&i.MaxCostCents,
	)
	return i, err
}

const listActivities = `-- name: ListActivities :many
SELECT ` + activityColumns + `
FROM activities
WHERE (?1 = '' OR type = ?1)
  AND (?2 = '' OR instr(lower(name), lower(?2)) > 0)
ORDER BY name
LIMIT ?3
`

type ListActivitiesParams struct {
	Type  string
	Query string
	Limit int64
}

func (q *Queries) ListActivities(ctx context.Context, arg ListActivitiesParams) ([]Activity, error) {
	rows, err := q.db.QueryContext(ctx, listActivities, arg.Type, arg.Query, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Activity
	for rows.Next() {
		i, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getActivity = `-- name: GetActivity :one
SELECT ` + activityColumns + ` FROM activities WHERE id = ?
`

func (q *Queries) GetActivity(ctx context.Context, id string) (Activity, error) {
	return scanActivity(q.db.QueryRowContext(ctx, getActivity, id))
}

const listCityCosts = `-- name: ListCityCosts :many
SELECT city_key, city_name, country, accommodation_cents, food_cents, transport_cents, cost_index
FROM city_costs
ORDER BY city_key
`

func (q *Queries) ListCityCosts(ctx context.Context) ([]CityCost, error) {
	rows, err := q.db.QueryContext(ctx, listCityCosts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CityCost
	for rows.Next() {
		var i CityCost
		if err := rows.Scan(
			&i.CityKey,
			&i.CityName,
			&i.Country,
			&i.AccommodationCents,
			&i.FoodCents,
			&i.TransportCents,
			&i.CostIndex,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertCityCost = `-- name: UpsertCityCost :exec
INSERT INTO city_costs (city_key, city_name, country, accommodation_cents, food_cents, transport_cents, cost_index, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (city_key) DO UPDATE SET
    city_name = excluded.city_name,
    country = excluded.country,
    accommodation_cents = excluded.accommodation_cents,
    food_cents = excluded.food_cents,
    transport_cents = excluded.transport_cents,
    cost_index = excluded.cost_index,
    updated_at = excluded.updated_at
`

type UpsertCityCostParams struct {
	CityKey            string
	CityName           string
	Country            string
	AccommodationCents int64
	FoodCents          int64
	TransportCents     int64
	CostIndex          float64
	UpdatedAt          time.Time
}

func (q *Queries) UpsertCityCost(ctx context.Context, arg UpsertCityCostParams) error {
	_, err := q.db.ExecContext(ctx, upsertCityCost,
		arg.CityKey,
		arg.CityName,
		arg.Country,
		arg.AccommodationCents,
		arg.FoodCents,
		arg.TransportCents,
		arg.CostIndex,
		arg.UpdatedAt,
	)
	return err
}
