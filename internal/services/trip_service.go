package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"viaggi/internal/amqp"
	"viaggi/internal/cache"
	"viaggi/internal/core"
	"viaggi/internal/costs"
	"viaggi/internal/session"
	"viaggi/internal/storage"
)

// EventPublisher announces trip changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishTripEvent(ctx context.Context, tripID string, kind amqp.EventKind) error
}

// ValidationError marks an error caused by invalid input.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

type (
	TripInput struct {
		Name        string
		Description string
		StartDate   core.Date
		EndDate     core.Date
	}

	// StopInput describes a stop. A nil OrderIndex appends the stop on create
	// and keeps the current position on update.
	StopInput struct {
		CityName   string
		Country    string
		StartDate  core.Date
		EndDate    core.Date
		OrderIndex *int
		Notes      string
	}

	// ActivityInput describes an activity added to a stop. A nil
	// EstimatedCost is filled from the catalog average when ActivityID is set.
	ActivityInput struct {
		ActivityID    string
		CustomName    string
		EstimatedCost *core.Money
		DurationHours float64
		Notes         string
		ScheduledTime string
	}

	// TripStats summarizes the trips of one user.
	TripStats struct {
		TotalTrips     int
		UpcomingTrips  int
		CitiesExplored int
		TotalBudget    core.Money
		DaysPlanned    int
	}
)

// Options configures optional TripService collaborators.
type Options struct {
	Events EventPublisher
	Clock  session.Clock
	Rates  *RateProvider
	// CatalogTTL bounds how long catalog entries are cached. Zero disables
	// the cache.
	CatalogTTL time.Duration
	NewID      func() string
}

// TripService orchestrates trip operations across storage and AMQP.
type TripService struct {
	repo    storage.Repository
	events  EventPublisher
	clock   session.Clock
	rates   *RateProvider
	catalog *cache.LRUCache[core.Activity]
	newID   func() string
}

func NewTripService(repo storage.Repository, opts Options) *TripService {
	s := &TripService{
		repo:   repo,
		events: opts.Events,
		clock:  opts.Clock,
		rates:  opts.Rates,
		newID:  opts.NewID,
	}
	if s.clock == nil {
		s.clock = session.SystemClock{}
	}
	if s.rates == nil {
		s.rates = NewRateProvider(repo, nil, 5*time.Minute)
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if opts.CatalogTTL > 0 {
		s.catalog = cache.NewLRUCache[core.Activity](256, opts.CatalogTTL)
	}
	return s
}

// Caches returns the caches owned by the service, for cleanup registration.
func (s *TripService) Caches() []cache.Cleaner {
	out := []cache.Cleaner{s.rates.Cache()}
	if s.catalog != nil {
		out = append(out, s.catalog)
	}
	return out
}

func (s *TripService) Rates() *RateProvider { return s.rates }

// Ping checks that storage is reachable.
func (s *TripService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// CreateTrip creates a trip owned by the session user.
func (s *TripService) CreateTrip(ctx context.Context, in TripInput) (core.Trip, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return core.Trip{}, err
	}
	now := s.clock.Now()
	t := core.Trip{
		ID:          s.newID(),
		OwnerID:     sess.UserID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return core.Trip{}, invalid(err)
	}
	if err := s.repo.CreateTrip(ctx, t); err != nil {
		return core.Trip{}, fmt.Errorf("save trip: %w", err)
	}
	slog.InfoContext(ctx, "Trip created", "trip_id", t.ID, "user_id", sess.UserID)
	s.publish(ctx, t.ID, amqp.TripUpdated)
	return t, nil
}

// GetTrip returns a trip with its itinerary. Public trips are readable by
// anyone; private ones only by their owner.
func (s *TripService) GetTrip(ctx context.Context, id string) (core.Trip, error) {
	t, err := s.repo.GetTrip(ctx, id)
	if err != nil {
		return core.Trip{}, err
	}
	if t.IsPublic {
		return t, nil
	}
	if err := authorize(ctx, t); err != nil {
		return core.Trip{}, err
	}
	return t, nil
}

// ListTrips returns the session user's trips ordered by start date.
func (s *TripService) ListTrips(ctx context.Context) ([]core.Trip, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}
	trips, err := s.repo.ListTrips(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return trips, nil
}

func (s *TripService) UpdateTrip(ctx context.Context, id string, in TripInput) (core.Trip, error) {
	t, err := s.ownedTrip(ctx, id)
	if err != nil {
		return core.Trip{}, err
	}
	t.Name = strings.TrimSpace(in.Name)
	t.Description = strings.TrimSpace(in.Description)
	t.StartDate = in.StartDate
	t.EndDate = in.EndDate
	t.UpdatedAt = s.clock.Now()
	if err := t.Validate(); err != nil {
		return core.Trip{}, invalid(err)
	}
	if err := s.repo.UpdateTrip(ctx, t); err != nil {
		return core.Trip{}, fmt.Errorf("update trip: %w", err)
	}
	s.publish(ctx, t.ID, amqp.TripUpdated)
	return t, nil
}

// DeleteTrip removes a trip with its stops and activities.
func (s *TripService) DeleteTrip(ctx context.Context, id string) error {
	if _, err := s.ownedTrip(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteTrip(ctx, id); err != nil {
		return fmt.Errorf("delete trip: %w", err)
	}
	slog.InfoContext(ctx, "Trip deleted", "trip_id", id)
	s.publish(ctx, id, amqp.TripDeleted)
	return nil
}

// AddStop appends a stop to a trip, or inserts it at the given order index
// when that slot is free.
func (s *TripService) AddStop(ctx context.Context, tripID string, in StopInput) (core.TripStop, error) {
	t, err := s.ownedTrip(ctx, tripID)
	if err != nil {
		return core.TripStop{}, err
	}
	idx := nextOrderIndex(t.Stops)
	if in.OrderIndex != nil {
		idx = *in.OrderIndex
	}
	st := core.TripStop{
		ID:         s.newID(),
		TripID:     t.ID,
		CityName:   strings.TrimSpace(in.CityName),
		Country:    strings.TrimSpace(in.Country),
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		OrderIndex: idx,
		Notes:      in.Notes,
		CreatedAt:  s.clock.Now(),
	}
	if err := st.Validate(); err != nil {
		return core.TripStop{}, invalid(err)
	}
	if err := s.repo.CreateStop(ctx, st); err != nil {
		return core.TripStop{}, fmt.Errorf("save stop: %w", err)
	}
	slog.InfoContext(ctx, "Stop added", "trip_id", t.ID, "stop_id", st.ID, "city", st.CityName)
	s.publish(ctx, t.ID, amqp.TripUpdated)
	return st, nil
}

func nextOrderIndex(stops []core.TripStop) int {
	next := 0
	for _, st := range stops {
		if st.OrderIndex >= next {
			next = st.OrderIndex + 1
		}
	}
	return next
}

func (s *TripService) UpdateStop(ctx context.Context, stopID string, in StopInput) (core.TripStop, error) {
	st, err := s.ownedStop(ctx, stopID)
	if err != nil {
		return core.TripStop{}, err
	}
	st.CityName = strings.TrimSpace(in.CityName)
	st.Country = strings.TrimSpace(in.Country)
	st.StartDate = in.StartDate
	st.EndDate = in.EndDate
	st.Notes = in.Notes
	if in.OrderIndex != nil {
		st.OrderIndex = *in.OrderIndex
	}
	if err := st.Validate(); err != nil {
		return core.TripStop{}, invalid(err)
	}
	if err := s.repo.UpdateStop(ctx, st); err != nil {
		return core.TripStop{}, fmt.Errorf("update stop: %w", err)
	}
	s.publish(ctx, st.TripID, amqp.TripUpdated)
	return st, nil
}

func (s *TripService) DeleteStop(ctx context.Context, stopID string) error {
	st, err := s.ownedStop(ctx, stopID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteStop(ctx, stopID); err != nil {
		return fmt.Errorf("delete stop: %w", err)
	}
	s.publish(ctx, st.TripID, amqp.TripUpdated)
	return nil
}

// ReorderStops renumbers the trip's stops following stopIDs, which must list
// every stop of the trip exactly once.
func (s *TripService) ReorderStops(ctx context.Context, tripID string, stopIDs []string) ([]core.TripStop, error) {
	t, err := s.ownedTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !isPermutation(t.Stops, stopIDs) {
		return nil, invalid(core.ErrInvalidStopOrder)
	}
	if err := s.repo.ReorderStops(ctx, tripID, stopIDs); err != nil {
		if errors.Is(err, core.ErrInvalidStopOrder) {
			return nil, invalid(err)
		}
		return nil, fmt.Errorf("reorder stops: %w", err)
	}
	s.publish(ctx, tripID, amqp.TripUpdated)

	reloaded, err := s.repo.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return reloaded.Stops, nil
}

func isPermutation(stops []core.TripStop, ids []string) bool {
	if len(stops) != len(ids) {
		return false
	}
	want := make(map[string]bool, len(stops))
	for _, st := range stops {
		want[st.ID] = true
	}
	for _, id := range ids {
		if !want[id] {
			return false
		}
		delete(want, id)
	}
	return true
}

// AddActivity attaches an activity to a stop. A catalog activity must exist;
// its average cost and typical duration fill the fields left empty.
func (s *TripService) AddActivity(ctx context.Context, stopID string, in ActivityInput) (core.TripActivity, error) {
	st, err := s.ownedStop(ctx, stopID)
	if err != nil {
		return core.TripActivity{}, err
	}
	a := core.TripActivity{
		ID:            s.newID(),
		StopID:        st.ID,
		ActivityID:    strings.TrimSpace(in.ActivityID),
		CustomName:    strings.TrimSpace(in.CustomName),
		DurationHours: in.DurationHours,
		Notes:         in.Notes,
		ScheduledTime: strings.TrimSpace(in.ScheduledTime),
		CreatedAt:     s.clock.Now(),
	}
	if in.EstimatedCost != nil {
		a.EstimatedCost = *in.EstimatedCost
	}
	if a.ActivityID != "" {
		cat, err := s.CatalogActivity(ctx, a.ActivityID)
		if err != nil {
			return core.TripActivity{}, err
		}
		if in.EstimatedCost == nil {
			a.EstimatedCost = costs.EstimateActivityCost(cat)
		}
		if a.DurationHours == 0 {
			a.DurationHours = cat.TypicalDurationHours
		}
	}
	if err := a.Validate(); err != nil {
		return core.TripActivity{}, invalid(err)
	}
	if err := s.repo.CreateTripActivity(ctx, a); err != nil {
		return core.TripActivity{}, fmt.Errorf("save activity: %w", err)
	}
	s.publish(ctx, st.TripID, amqp.TripUpdated)
	return a, nil
}

func (s *TripService) DeleteActivity(ctx context.Context, id string) error {
	a, err := s.repo.GetTripActivity(ctx, id)
	if err != nil {
		return err
	}
	st, err := s.ownedStop(ctx, a.StopID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTripActivity(ctx, id); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	s.publish(ctx, st.TripID, amqp.TripUpdated)
	return nil
}

// Breakdown computes the cost breakdown of a readable trip.
func (s *TripService) Breakdown(ctx context.Context, tripID string) (core.CostBreakdown, error) {
	t, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return core.CostBreakdown{}, err
	}
	return s.BreakdownOf(ctx, t)
}

// BreakdownOf computes the breakdown of an already loaded trip without any
// access check.
func (s *TripService) BreakdownOf(ctx context.Context, t core.Trip) (core.CostBreakdown, error) {
	table, err := s.rates.Table(ctx)
	if err != nil {
		return core.CostBreakdown{}, err
	}
	return costs.ComputeBreakdown(t, t.Stops, table), nil
}

// LoadTrip reads a trip without any access check. The export worker uses it.
func (s *TripService) LoadTrip(ctx context.Context, id string) (core.Trip, error) {
	return s.repo.GetTrip(ctx, id)
}

// TripIDs returns the id of every stored trip, regardless of owner.
func (s *TripService) TripIDs(ctx context.Context) ([]string, error) {
	return s.repo.ListTripIDs(ctx)
}

// ShareTrip makes a trip public and returns it with its share id. Sharing an
// already shared trip keeps the existing id.
func (s *TripService) ShareTrip(ctx context.Context, tripID string) (core.Trip, error) {
	t, err := s.ownedTrip(ctx, tripID)
	if err != nil {
		return core.Trip{}, err
	}
	if t.IsPublic && t.ShareID != "" {
		return t, nil
	}
	t.IsPublic = true
	if t.ShareID == "" {
		t.ShareID = s.newID()
	}
	t.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateTrip(ctx, t); err != nil {
		return core.Trip{}, fmt.Errorf("share trip: %w", err)
	}
	slog.InfoContext(ctx, "Trip shared", "trip_id", t.ID, "share_id", t.ShareID)
	s.publish(ctx, t.ID, amqp.TripUpdated)
	return t, nil
}

// GetSharedTrip returns a public trip by share id. It needs no session.
func (s *TripService) GetSharedTrip(ctx context.Context, shareID string) (core.Trip, error) {
	if strings.TrimSpace(shareID) == "" {
		return core.Trip{}, core.ErrNotFound
	}
	return s.repo.GetTripByShareID(ctx, shareID)
}

// CopyTrip copies a shared trip with all its stops and activities into a new
// private trip owned by the session user.
func (s *TripService) CopyTrip(ctx context.Context, shareID string) (core.Trip, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return core.Trip{}, err
	}
	src, err := s.GetSharedTrip(ctx, shareID)
	if err != nil {
		return core.Trip{}, err
	}

	now := s.clock.Now()
	cp := core.Trip{
		ID:          s.newID(),
		OwnerID:     sess.UserID,
		Name:        src.Name,
		Description: src.Description,
		StartDate:   src.StartDate,
		EndDate:     src.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	cp.Stops = make([]core.TripStop, 0, len(src.Stops))
	for _, st := range src.Stops {
		nst := st
		nst.ID = s.newID()
		nst.TripID = cp.ID
		nst.CreatedAt = now
		nst.Activities = make([]core.TripActivity, 0, len(st.Activities))
		for _, a := range st.Activities {
			a.ID = s.newID()
			a.StopID = nst.ID
			a.CreatedAt = now
			nst.Activities = append(nst.Activities, a)
		}
		cp.Stops = append(cp.Stops, nst)
	}

	if err := s.repo.SaveTripGraph(ctx, cp); err != nil {
		return core.Trip{}, fmt.Errorf("copy trip: %w", err)
	}
	slog.InfoContext(ctx, "Trip copied", "source_trip_id", src.ID, "trip_id", cp.ID, "user_id", sess.UserID)
	s.publish(ctx, cp.ID, amqp.TripUpdated)
	return cp, nil
}

// Stats summarizes the session user's trips as of the service clock.
func (s *TripService) Stats(ctx context.Context) (TripStats, error) {
	trips, err := s.ListTrips(ctx)
	if err != nil {
		return TripStats{}, err
	}
	table, err := s.rates.Table(ctx)
	if err != nil {
		return TripStats{}, err
	}

	now := s.clock.Now()
	stats := TripStats{TotalTrips: len(trips)}
	cities := make(map[string]bool)
	for _, t := range trips {
		if t.StartDate.After(now) {
			stats.UpcomingTrips++
		}
		for _, c := range t.Cities() {
			cities[costs.NormalizeCity(c)] = true
		}
		b := costs.ComputeBreakdown(t, t.Stops, table)
		stats.TotalBudget = stats.TotalBudget.Add(b.Total)
		stats.DaysPlanned += b.TotalDays
	}
	stats.CitiesExplored = len(cities)
	return stats, nil
}

// SearchCatalog lists catalog activities matching f.
func (s *TripService) SearchCatalog(ctx context.Context, f storage.CatalogFilter) ([]core.Activity, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, invalid(core.ErrInvalidType)
	}
	return s.repo.ListCatalog(ctx, f)
}

// CatalogActivity returns one catalog entry, served from the cache when
// enabled.
func (s *TripService) CatalogActivity(ctx context.Context, id string) (core.Activity, error) {
	load := func() (core.Activity, error) {
		return s.repo.GetCatalogActivity(ctx, id)
	}
	if s.catalog == nil {
		return load()
	}
	return s.catalog.GetOrLoad(id, load)
}

func (s *TripService) ownedTrip(ctx context.Context, id string) (core.Trip, error) {
	t, err := s.repo.GetTrip(ctx, id)
	if err != nil {
		return core.Trip{}, err
	}
	if err := authorize(ctx, t); err != nil {
		return core.Trip{}, err
	}
	return t, nil
}

func (s *TripService) ownedStop(ctx context.Context, id string) (core.TripStop, error) {
	st, err := s.repo.GetStop(ctx, id)
	if err != nil {
		return core.TripStop{}, err
	}
	if _, err := s.ownedTrip(ctx, st.TripID); err != nil {
		return core.TripStop{}, err
	}
	return st, nil
}

func authorize(ctx context.Context, t core.Trip) error {
	sess, err := session.Require(ctx)
	if err != nil {
		return err
	}
	if sess.UserID != t.OwnerID {
		return core.ErrForbidden
	}
	return nil
}

// publish sends a change event. Failures are logged; the change is already
// stored.
func (s *TripService) publish(ctx context.Context, tripID string, kind amqp.EventKind) {
	if s.events == nil {
		slog.DebugContext(ctx, "No event publisher, skipping trip event", "trip_id", tripID)
		return
	}
	if err := s.events.PublishTripEvent(ctx, tripID, kind); err != nil {
		slog.ErrorContext(ctx, "Failed to publish trip event",
			"trip_id", tripID, "kind", kind, "error", err)
	}
}

// Close releases storage.
func (s *TripService) Close() error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Close(); err != nil {
		return fmt.Errorf("close trip service: %w", err)
	}
	return nil
}
