// Package memory is an in-process implementation of the storage ports, used
// by the memory backend and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"viaggi/internal/core"
	"viaggi/internal/costs"
	"viaggi/internal/storage"
)

type Store struct {
	mu      sync.Mutex
	trips   map[string]core.Trip
	stops   map[string]core.TripStop
	acts    map[string]core.TripActivity
	catalog []core.Activity
	rates   map[string]core.CityRates
}

var _ storage.Repository = (*Store)(nil)

// New returns a store holding the given catalog. A nil catalog means
// SeedCatalog.
func New(catalog []core.Activity) *Store {
	if catalog == nil {
		catalog = SeedCatalog
	}
	cat := append([]core.Activity(nil), catalog...)
	sort.Slice(cat, func(i, j int) bool { return cat[i].Name < cat[j].Name })
	return &Store{
		trips:   make(map[string]core.Trip),
		stops:   make(map[string]core.TripStop),
		acts:    make(map[string]core.TripActivity),
		catalog: cat,
		rates:   make(map[string]core.CityRates),
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) CreateTrip(_ context.Context, t core.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trips[t.ID]; ok {
		return fmt.Errorf("create trip: duplicate id %s", t.ID)
	}
	if t.ShareID != "" && s.shareIDTaken(t.ShareID, t.ID) {
		return fmt.Errorf("create trip: duplicate share id")
	}
	t.Stops = nil
	s.trips[t.ID] = t
	return nil
}

func (s *Store) SaveTripGraph(ctx context.Context, t core.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trips[t.ID]; ok {
		return fmt.Errorf("create trip: duplicate id %s", t.ID)
	}
	seen := make(map[int]bool, len(t.Stops))
	for _, st := range t.Stops {
		if seen[st.OrderIndex] {
			return fmt.Errorf("create stop %s: %w", st.ID, core.ErrDuplicateOrderSlot)
		}
		seen[st.OrderIndex] = true
	}
	for _, st := range t.Stops {
		for _, a := range st.Activities {
			s.acts[a.ID] = a
		}
		st.Activities = nil
		s.stops[st.ID] = st
	}
	t.Stops = nil
	s.trips[t.ID] = t
	return nil
}

func (s *Store) shareIDTaken(shareID, exceptTrip string) bool {
	for id, t := range s.trips {
		if id != exceptTrip && t.ShareID == shareID {
			return true
		}
	}
	return false
}

func (s *Store) GetTrip(_ context.Context, id string) (core.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[id]
	if !ok {
		return core.Trip{}, fmt.Errorf("get trip %s: %w", id, core.ErrNotFound)
	}
	return s.assemble(t), nil
}

func (s *Store) GetTripByShareID(_ context.Context, shareID string) (core.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.trips {
		if t.IsPublic && shareID != "" && t.ShareID == shareID {
			return s.assemble(t), nil
		}
	}
	return core.Trip{}, fmt.Errorf("get shared trip: %w", core.ErrNotFound)
}

func (s *Store) ListTrips(_ context.Context, ownerID string) ([]core.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Trip
	for _, t := range s.trips {
		if t.OwnerID == ownerID {
			out = append(out, s.assemble(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate.Time) {
			return out[i].StartDate.Before(out[j].StartDate.Time)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) ListTripIDs(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trips := make([]core.Trip, 0, len(s.trips))
	for _, t := range s.trips {
		trips = append(trips, t)
	}
	sort.Slice(trips, func(i, j int) bool {
		if !trips[i].CreatedAt.Equal(trips[j].CreatedAt) {
			return trips[i].CreatedAt.Before(trips[j].CreatedAt)
		}
		return trips[i].ID < trips[j].ID
	})
	ids := make([]string, len(trips))
	for i, t := range trips {
		ids[i] = t.ID
	}
	return ids, nil
}

// assemble attaches stops and activities to a trip. Callers hold s.mu.
func (s *Store) assemble(t core.Trip) core.Trip {
	var stops []core.TripStop
	for _, st := range s.stops {
		if st.TripID != t.ID {
			continue
		}
		st.Activities = nil
		for _, a := range s.acts {
			if a.StopID == st.ID {
				st.Activities = append(st.Activities, a)
			}
		}
		sort.Slice(st.Activities, func(i, j int) bool {
			ai, aj := st.Activities[i], st.Activities[j]
			if ai.ScheduledTime != aj.ScheduledTime {
				return ai.ScheduledTime < aj.ScheduledTime
			}
			return ai.CreatedAt.Before(aj.CreatedAt)
		})
		stops = append(stops, st)
	}
	t.Stops = costs.SortStops(stops)
	return t
}

func (s *Store) UpdateTrip(_ context.Context, t core.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.trips[t.ID]
	if !ok {
		return fmt.Errorf("update trip %s: %w", t.ID, core.ErrNotFound)
	}
	if t.ShareID != "" && s.shareIDTaken(t.ShareID, t.ID) {
		return fmt.Errorf("update trip %s: duplicate share id", t.ID)
	}
	t.OwnerID = cur.OwnerID
	t.CreatedAt = cur.CreatedAt
	t.Stops = nil
	s.trips[t.ID] = t
	return nil
}

func (s *Store) DeleteTrip(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trips[id]; !ok {
		return fmt.Errorf("delete trip %s: %w", id, core.ErrNotFound)
	}
	delete(s.trips, id)
	for sid, st := range s.stops {
		if st.TripID == id {
			s.deleteStopLocked(sid)
		}
	}
	return nil
}

func (s *Store) CreateStop(_ context.Context, st core.TripStop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[st.TripID]
	if !ok {
		return fmt.Errorf("create stop: trip %s: %w", st.TripID, core.ErrNotFound)
	}
	if s.slotTaken(st.TripID, st.OrderIndex, "") {
		return fmt.Errorf("create stop: %w", core.ErrDuplicateOrderSlot)
	}
	st.Activities = nil
	s.stops[st.ID] = st
	t.UpdatedAt = st.CreatedAt
	s.trips[t.ID] = t
	return nil
}

func (s *Store) slotTaken(tripID string, idx int, exceptStop string) bool {
	for id, st := range s.stops {
		if id != exceptStop && st.TripID == tripID && st.OrderIndex == idx {
			return true
		}
	}
	return false
}

func (s *Store) GetStop(_ context.Context, id string) (core.TripStop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stops[id]
	if !ok {
		return core.TripStop{}, fmt.Errorf("get stop %s: %w", id, core.ErrNotFound)
	}
	return st, nil
}

func (s *Store) UpdateStop(_ context.Context, st core.TripStop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.stops[st.ID]
	if !ok {
		return fmt.Errorf("update stop %s: %w", st.ID, core.ErrNotFound)
	}
	if s.slotTaken(cur.TripID, st.OrderIndex, st.ID) {
		return fmt.Errorf("update stop %s: %w", st.ID, core.ErrDuplicateOrderSlot)
	}
	st.TripID = cur.TripID
	st.CreatedAt = cur.CreatedAt
	st.Activities = nil
	s.stops[st.ID] = st
	return nil
}

func (s *Store) DeleteStop(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stops[id]; !ok {
		return fmt.Errorf("delete stop %s: %w", id, core.ErrNotFound)
	}
	s.deleteStopLocked(id)
	return nil
}

func (s *Store) deleteStopLocked(id string) {
	delete(s.stops, id)
	for aid, a := range s.acts {
		if a.StopID == id {
			delete(s.acts, aid)
		}
	}
}

func (s *Store) ReorderStops(_ context.Context, tripID string, stopIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := make(map[string]bool)
	for id, st := range s.stops {
		if st.TripID == tripID {
			current[id] = true
		}
	}
	if len(current) != len(stopIDs) {
		return core.ErrInvalidStopOrder
	}
	for _, id := range stopIDs {
		if !current[id] {
			return core.ErrInvalidStopOrder
		}
		delete(current, id)
	}
	for i, id := range stopIDs {
		st := s.stops[id]
		st.OrderIndex = i
		s.stops[id] = st
	}
	return nil
}

func (s *Store) CreateTripActivity(_ context.Context, a core.TripActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stops[a.StopID]; !ok {
		return fmt.Errorf("create trip activity: stop %s: %w", a.StopID, core.ErrNotFound)
	}
	s.acts[a.ID] = a
	return nil
}

func (s *Store) GetTripActivity(_ context.Context, id string) (core.TripActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.acts[id]
	if !ok {
		return core.TripActivity{}, fmt.Errorf("get trip activity %s: %w", id, core.ErrNotFound)
	}
	return a, nil
}

func (s *Store) DeleteTripActivity(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.acts[id]; !ok {
		return fmt.Errorf("delete trip activity %s: %w", id, core.ErrNotFound)
	}
	delete(s.acts, id)
	return nil
}

func (s *Store) ListCatalog(_ context.Context, f storage.CatalogFilter) ([]core.Activity, error) {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	var out []core.Activity
	for _, a := range s.catalog {
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(a.Name), q) {
			continue
		}
		out = append(out, a)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) GetCatalogActivity(_ context.Context, id string) (core.Activity, error) {
	for _, a := range s.catalog {
		if a.ID == id {
			return a, nil
		}
	}
	return core.Activity{}, fmt.Errorf("get catalog activity %s: %w", id, core.ErrNotFound)
}

func (s *Store) ListCityRates(context.Context) ([]core.CityRates, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.CityRates, 0, len(s.rates))
	for _, r := range s.rates {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return costs.NormalizeCity(out[i].City) < costs.NormalizeCity(out[j].City)
	})
	return out, nil
}

func (s *Store) UpsertCityRates(_ context.Context, r core.CityRates) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.City = strings.TrimSpace(r.City)
	s.rates[costs.NormalizeCity(r.City)] = r
	return nil
}
