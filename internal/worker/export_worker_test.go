package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"viaggi/internal/amqp"
	"viaggi/internal/core"
	"viaggi/internal/services"
	"viaggi/internal/session"
	"viaggi/internal/sheets"
	sheetsmem "viaggi/internal/sheets/memory"
	"viaggi/internal/storage/memory"
)

func setup(t *testing.T) (*services.TripService, *sheetsmem.Exporter, *ExportWorker, context.Context) {
	t.Helper()
	svc := services.NewTripService(memory.New(nil), services.Options{
		Clock: session.FixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	exp := sheetsmem.New()
	w := NewExportWorker(svc, exp, 0)
	ctx := session.WithSession(context.Background(), session.Session{UserID: "alice"})
	return svc, exp, w, ctx
}

func createParisTrip(t *testing.T, svc *services.TripService, ctx context.Context) core.Trip {
	t.Helper()
	trip, err := svc.CreateTrip(ctx, services.TripInput{Name: "Paris", StartDate: core.NewDate(2025, 6, 1), EndDate: core.NewDate(2025, 6, 4)})
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	if _, err := svc.AddStop(ctx, trip.ID, services.StopInput{CityName: "Paris", StartDate: core.NewDate(2025, 6, 1), EndDate: core.NewDate(2025, 6, 4)}); err != nil {
		t.Fatalf("AddStop: %v", err)
	}
	return trip
}

func TestHandleMessageExportsAndDeletes(t *testing.T) {
	svc, exp, w, ctx := setup(t)
	trip := createParisTrip(t, svc, ctx)

	if err := w.HandleMessage(ctx, amqp.NewTripChangedMessage(trip.ID, amqp.TripUpdated)); err != nil {
		t.Fatalf("HandleMessage updated: %v", err)
	}
	row, ok := exp.Get(trip.ID)
	if !ok {
		t.Fatal("expected a budget row")
	}
	if row.Total != core.Dollars(510) || row.Days != 3 || row.PerDay != core.Dollars(170) {
		t.Fatalf("unexpected row: %+v", row)
	}

	if err := w.HandleMessage(ctx, amqp.NewTripChangedMessage(trip.ID, amqp.TripDeleted)); err != nil {
		t.Fatalf("HandleMessage deleted: %v", err)
	}
	if _, ok := exp.Get(trip.ID); ok {
		t.Fatal("row should be gone")
	}
}

func TestExportTripRemovesRowOfMissingTrip(t *testing.T) {
	_, exp, w, ctx := setup(t)
	if _, err := exp.UpsertTripBudget(ctx, sheets.BudgetRow{TripID: "ghost"}); err != nil {
		t.Fatal(err)
	}
	if err := w.ExportTrip(ctx, "ghost"); err != nil {
		t.Fatalf("ExportTrip: %v", err)
	}
	if _, ok := exp.Get("ghost"); ok {
		t.Fatal("row of a missing trip should be removed")
	}
}

func TestExportAllReconciles(t *testing.T) {
	svc, exp, w, ctx := setup(t)
	a := createParisTrip(t, svc, ctx)
	b := createParisTrip(t, svc, ctx)
	if _, err := exp.UpsertTripBudget(ctx, sheets.BudgetRow{TripID: "stale"}); err != nil {
		t.Fatal(err)
	}

	if err := w.ExportAll(ctx); err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	ids := exp.TripIDs()
	if len(ids) != 2 {
		t.Fatalf("expected exactly the two stored trips, got %v", ids)
	}
	for _, id := range []string{a.ID, b.ID} {
		if _, ok := exp.Get(id); !ok {
			t.Errorf("trip %s not exported", id)
		}
	}
}

type failingExporter struct{ sheets.BudgetExporter }

func (failingExporter) UpsertTripBudget(context.Context, sheets.BudgetRow) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestExportAllReportsFailures(t *testing.T) {
	svc, _, _, ctx := setup(t)
	createParisTrip(t, svc, ctx)
	w := NewExportWorker(svc, failingExporter{}, 0)
	if err := w.ExportAll(ctx); err == nil {
		t.Fatal("expected an error when exports fail")
	}
}

type chanConsumer struct {
	msgs   chan *amqp.TripChangedMessage
	errors chan error
}

func (c *chanConsumer) Consume(ctx context.Context, handler func(context.Context, *amqp.TripChangedMessage) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-c.msgs:
			c.errors <- handler(ctx, m)
		}
	}
}

func TestRunConsumesUntilCancelled(t *testing.T) {
	svc, exp, w, ctx := setup(t)
	trip := createParisTrip(t, svc, ctx)
	if err := w.ExportTrip(ctx, trip.ID); err != nil {
		t.Fatalf("ExportTrip: %v", err)
	}
	if err := svc.DeleteTrip(ctx, trip.ID); err != nil {
		t.Fatalf("DeleteTrip: %v", err)
	}

	consumer := &chanConsumer{msgs: make(chan *amqp.TripChangedMessage), errors: make(chan error, 1)}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- w.Run(runCtx, consumer) }()

	consumer.msgs <- amqp.NewTripChangedMessage(trip.ID, amqp.TripDeleted)
	if err := <-consumer.errors; err != nil {
		t.Fatalf("handler: %v", err)
	}
	if _, ok := exp.Get(trip.ID); ok {
		t.Fatal("delete message not applied")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestProcessLocalStoreNeverRemovesRows(t *testing.T) {
	ctx := session.WithSession(context.Background(), session.Session{UserID: "alice"})
	exp := sheetsmem.New()
	for _, id := range []string{"a", "b", "c"} {
		if _, err := exp.UpsertTripBudget(ctx, sheets.BudgetRow{TripID: id}); err != nil {
			t.Fatal(err)
		}
	}
	empty := services.NewTripService(memory.New(nil), services.Options{})
	w := NewExportWorker(empty, exp, 0, WithProcessLocalStore())

	if err := w.ExportAll(ctx); err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if err := w.HandleMessage(ctx, amqp.NewTripChangedMessage("b", amqp.TripUpdated)); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if ids := exp.TripIDs(); len(ids) != 3 {
		t.Fatalf("rows exported by another process were removed, left %v", ids)
	}

	if err := w.HandleMessage(ctx, amqp.NewTripChangedMessage("c", amqp.TripDeleted)); err != nil {
		t.Fatalf("HandleMessage deleted: %v", err)
	}
	if _, ok := exp.Get("c"); ok {
		t.Error("an explicit delete event must still remove the row")
	}
}
