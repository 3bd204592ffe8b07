package cli

import (
	"fmt"

	"viaggi/internal/config"
	"viaggi/internal/costs"
	"viaggi/internal/services"
	"viaggi/internal/storage"
)

// NewTripService builds the trip service over repo with the rate overrides
// and cache lifetimes named by cfg. events may be nil.
func NewTripService(cfg *config.Config, repo storage.Repository, events services.EventPublisher) (*services.TripService, error) {
	var overrides *costs.RatesFile
	if cfg.RatesFile != "" {
		f, err := costs.LoadRatesFile(cfg.RatesFile)
		if err != nil {
			return nil, fmt.Errorf("load rates overrides: %w", err)
		}
		overrides = &f
	}

	return services.NewTripService(repo, services.Options{
		Events:     events,
		Rates:      services.NewRateProvider(repo, overrides, cfg.RatesCacheTTL),
		CatalogTTL: cfg.CatalogCacheTTL,
	}), nil
}
