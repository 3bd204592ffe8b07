package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"viaggi/internal/cache"
	"viaggi/internal/core"
	"viaggi/internal/costs"
	"viaggi/internal/storage"
)

const ratesCacheKey = "city_rates"

// RateProvider assembles the effective rate table: built-in rates, then the
// rows stored in the database, then the TOML overrides. The database rows are
// cached for ttl.
type RateProvider struct {
	store     storage.RateStore
	overrides *costs.RatesFile
	rows      *cache.LRUCache[[]core.CityRates]

	// gen counts upserts. A load that started under an older generation
	// must not repopulate the cache.
	mu  sync.Mutex
	gen uint64
}

// NewRateProvider creates a provider. store and overrides may be nil.
func NewRateProvider(store storage.RateStore, overrides *costs.RatesFile, ttl time.Duration) *RateProvider {
	return &RateProvider{
		store:     store,
		overrides: overrides,
		rows:      cache.NewLRUCache[[]core.CityRates](1, ttl),
	}
}

// Cache exposes the row cache so it can be registered with a cache.Manager.
func (p *RateProvider) Cache() cache.Cleaner {
	return p.rows
}

// Table returns a fresh rate table. The caller owns it.
func (p *RateProvider) Table(ctx context.Context) (*costs.RateTable, error) {
	table := costs.DefaultRateTable()

	if p.store != nil {
		rows, err := p.storedRows(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			table.Set(r)
		}
	}

	if p.overrides != nil {
		if err := table.Apply(*p.overrides); err != nil {
			return nil, fmt.Errorf("apply rate overrides: %w", err)
		}
	}
	return table, nil
}

func (p *RateProvider) storedRows(ctx context.Context) ([]core.CityRates, error) {
	if rows, ok := p.rows.Get(ratesCacheKey); ok {
		return rows, nil
	}

	p.mu.Lock()
	gen := p.gen
	p.mu.Unlock()

	rows, err := p.store.ListCityRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load city rates: %w", err)
	}

	p.mu.Lock()
	if p.gen == gen {
		p.rows.Set(ratesCacheKey, rows)
	}
	p.mu.Unlock()
	return rows, nil
}

// Effective returns the rate the engine uses for city once every layer is
// applied, and whether the city is known at all.
func (p *RateProvider) Effective(ctx context.Context, city string) (core.CityRates, bool, error) {
	table, err := p.Table(ctx)
	if err != nil {
		return core.CityRates{}, false, err
	}
	r, ok := table.RatesFor(city)
	return r, ok, nil
}

// Upsert stores the rates of one city and drops the cached rows. A TOML
// override for the same city still wins over the stored row; callers use
// Effective to see the rate actually applied.
func (p *RateProvider) Upsert(ctx context.Context, r core.CityRates) error {
	if err := r.Validate(); err != nil {
		return invalid(err)
	}
	if p.store == nil {
		return fmt.Errorf("upsert city rates: no rate store configured")
	}
	if err := p.store.UpsertCityRates(ctx, r); err != nil {
		return fmt.Errorf("upsert city rates: %w", err)
	}
	p.mu.Lock()
	p.gen++
	p.rows.Delete(ratesCacheKey)
	p.mu.Unlock()
	slog.InfoContext(ctx, "City rates updated", "city", r.City)
	return nil
}
