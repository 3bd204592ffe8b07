package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"viaggi/internal/core"
	"viaggi/internal/costs"
)

// slowRateStore snapshots its rows, then waits for release before returning
// them, so an upsert can land while a load is in flight.
type slowRateStore struct {
	mu      sync.Mutex
	rows    []core.CityRates
	loaded  chan struct{}
	release chan struct{}
	block   bool
}

func (s *slowRateStore) ListCityRates(context.Context) ([]core.CityRates, error) {
	s.mu.Lock()
	snapshot := append([]core.CityRates(nil), s.rows...)
	block := s.block
	s.block = false
	s.mu.Unlock()
	if block {
		close(s.loaded)
		<-s.release
	}
	return snapshot, nil
}

func (s *slowRateStore) UpsertCityRates(_ context.Context, r core.CityRates) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, r)
	return nil
}

func TestRateTableNotPoisonedByConcurrentUpsert(t *testing.T) {
	store := &slowRateStore{block: true, loaded: make(chan struct{}), release: make(chan struct{})}
	p := NewRateProvider(store, nil, time.Hour)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := p.Table(ctx); err != nil {
			t.Errorf("Table: %v", err)
		}
	}()

	<-store.loaded
	atlantis := core.CityRates{City: "Atlantis", Accommodation: core.Dollars(10), Food: core.Dollars(5), Transport: core.Dollars(1)}
	if err := p.Upsert(ctx, atlantis); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	close(store.release)
	<-done

	table, err := p.Table(ctx)
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if _, ok := table.Lookup("Atlantis"); !ok {
		t.Fatal("rows loaded before the upsert were cached over it")
	}
}

func TestEffectiveRateAppliesOverrides(t *testing.T) {
	food := 99.0
	overrides := &costs.RatesFile{Cities: map[string]costs.RateOverride{"Atlantis": {Food: &food}}}
	store := &slowRateStore{}
	p := NewRateProvider(store, overrides, time.Minute)
	ctx := context.Background()

	if err := p.Upsert(ctx, core.CityRates{City: "Atlantis", Accommodation: core.Dollars(10), Food: core.Dollars(5), Transport: core.Dollars(1)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	r, known, err := p.Effective(ctx, "atlantis")
	if err != nil {
		t.Fatalf("Effective: %v", err)
	}
	if !known || r.Accommodation != core.Dollars(10) || r.Food != core.Dollars(99) {
		t.Errorf("effective = %+v (known %v), want stored accommodation with overridden food", r, known)
	}

	if _, known, _ := p.Effective(ctx, "Nowhere"); known {
		t.Error("unknown city reported as known")
	}
}
