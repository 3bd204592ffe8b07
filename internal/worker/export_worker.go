package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"viaggi/internal/amqp"
	"viaggi/internal/core"
	"viaggi/internal/sheets"
)

// TripSource loads trips and their breakdowns without access checks.
// *services.TripService implements it.
type TripSource interface {
	LoadTrip(ctx context.Context, id string) (core.Trip, error)
	BreakdownOf(ctx context.Context, t core.Trip) (core.CostBreakdown, error)
	TripIDs(ctx context.Context) ([]string, error)
}

// Consumer delivers trip change messages until ctx ends.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.TripChangedMessage) error) error
}

// ExportWorker keeps the budget sheet in line with the stored trips.
type ExportWorker struct {
	trips    TripSource
	exporter sheets.BudgetExporter
	interval time.Duration
	// localStore marks a trip source private to this process: a missing trip
	// says nothing about the API's data, so no row is ever removed.
	localStore bool
}

// Option configures an ExportWorker.
type Option func(*ExportWorker)

// WithProcessLocalStore tells the worker its trips live only in this process,
// as with the memory backend. Rows are then upserted but never deleted on
// account of a missing trip.
func WithProcessLocalStore() Option {
	return func(w *ExportWorker) { w.localStore = true }
}

func NewExportWorker(trips TripSource, exporter sheets.BudgetExporter, interval time.Duration, opts ...Option) *ExportWorker {
	w := &ExportWorker{
		trips:    trips,
		exporter: exporter,
		interval: interval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// HandleMessage processes a single trip change message from AMQP.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.TripChangedMessage) error {
	slog.InfoContext(ctx, "Processing trip change",
		"trip_id", msg.TripID,
		"kind", msg.Kind)

	switch msg.Kind {
	case amqp.TripDeleted:
		if err := w.exporter.DeleteTripBudget(ctx, msg.TripID); err != nil {
			return fmt.Errorf("delete budget row: %w", err)
		}
		return nil
	case amqp.TripUpdated:
		return w.ExportTrip(ctx, msg.TripID)
	default:
		slog.WarnContext(ctx, "Ignoring unknown trip event", "kind", msg.Kind)
		return nil
	}
}

// ExportTrip recomputes and writes the budget row of one trip. A trip that no
// longer exists has its row removed.
func (w *ExportWorker) ExportTrip(ctx context.Context, tripID string) error {
	trip, err := w.trips.LoadTrip(ctx, tripID)
	if errors.Is(err, core.ErrNotFound) && w.localStore {
		slog.WarnContext(ctx, "Trip not in the local store, keeping its budget row", "trip_id", tripID)
		return nil
	}
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Trip gone, removing budget row", "trip_id", tripID)
		return w.exporter.DeleteTripBudget(ctx, tripID)
	}
	if err != nil {
		return fmt.Errorf("load trip: %w", err)
	}

	b, err := w.trips.BreakdownOf(ctx, trip)
	if err != nil {
		return fmt.Errorf("compute breakdown: %w", err)
	}

	ref, err := w.exporter.UpsertTripBudget(ctx, sheets.NewBudgetRow(trip, b))
	if err != nil {
		return fmt.Errorf("export budget: %w", err)
	}

	slog.InfoContext(ctx, "Exported trip budget",
		"trip_id", tripID,
		"sheets_ref", ref,
		"total_cents", b.Total.Cents)
	return nil
}

// ExportAll re-exports every trip and, when the exporter can list its rows,
// removes rows of trips that no longer exist. It covers messages lost while
// the worker was down.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	ids, err := w.trips.TripIDs(ctx)
	if err != nil {
		return fmt.Errorf("list trips: %w", err)
	}

	successCount, errorCount := 0, 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.ExportTrip(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to export trip", "trip_id", id, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	removed := 0
	if lister, ok := w.exporter.(sheets.BudgetLister); ok && !w.localStore {
		removed, err = w.removeStale(ctx, lister, ids)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to remove stale budget rows", "error", err)
			errorCount++
		}
	}

	slog.InfoContext(ctx, "Full export completed",
		"total", len(ids),
		"exported", successCount,
		"removed", removed,
		"errors", errorCount)

	if errorCount > 0 {
		return fmt.Errorf("full export: %d failures", errorCount)
	}
	return nil
}

func (w *ExportWorker) removeStale(ctx context.Context, lister sheets.BudgetLister, ids []string) (int, error) {
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	rows, err := lister.ListTripBudgets(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, row := range rows {
		if known[row.TripID] {
			continue
		}
		if err := w.exporter.DeleteTripBudget(ctx, row.TripID); err != nil {
			return removed, fmt.Errorf("delete row of %s: %w", row.TripID, err)
		}
		removed++
	}
	return removed, nil
}

// Run consumes messages and runs the periodic full export until ctx is done
// or either loop fails. A full export runs once at startup.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer) error {
	g, ctx := errgroup.WithContext(ctx)

	if consumer != nil {
		g.Go(func() error {
			err := consumer.Consume(ctx, w.HandleMessage)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		if err := w.ExportAll(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "Startup export failed", "error", err)
		}
		if w.interval <= 0 {
			return nil
		}

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := w.ExportAll(ctx); err != nil && ctx.Err() == nil {
					slog.ErrorContext(ctx, "Periodic export failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}
