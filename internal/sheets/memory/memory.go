package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"viaggi/internal/sheets"
)

// Exporter keeps budget rows in memory. It is used when no spreadsheet is
// configured and in tests.
type Exporter struct {
	mu    sync.Mutex
	rows  map[string]sheets.BudgetRow
	order []string
}

var (
	_ sheets.BudgetExporter = (*Exporter)(nil)
	_ sheets.BudgetLister   = (*Exporter)(nil)
)

func New() *Exporter {
	return &Exporter{rows: make(map[string]sheets.BudgetRow)}
}

// UpsertTripBudget stores the row and returns a synthetic row reference.
func (e *Exporter) UpsertTripBudget(_ context.Context, row sheets.BudgetRow) (string, error) {
	if row.TripID == "" {
		return "", errors.New("budget row without trip id")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rows[row.TripID]; !ok {
		e.order = append(e.order, row.TripID)
	}
	e.rows[row.TripID] = row
	return fmt.Sprintf("mem:%d", e.indexLocked(row.TripID)+1), nil
}

func (e *Exporter) DeleteTripBudget(_ context.Context, tripID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rows[tripID]; !ok {
		return nil
	}
	delete(e.rows, tripID)
	i := e.indexLocked(tripID)
	e.order = append(e.order[:i], e.order[i+1:]...)
	return nil
}

func (e *Exporter) indexLocked(tripID string) int {
	for i, id := range e.order {
		if id == tripID {
			return i
		}
	}
	return -1
}

// ListTripBudgets returns the rows in insertion order.
func (e *Exporter) ListTripBudgets(context.Context) ([]sheets.BudgetRow, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]sheets.BudgetRow, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.rows[id])
	}
	return out, nil
}

// Get returns the row of one trip.
func (e *Exporter) Get(tripID string) (sheets.BudgetRow, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rows[tripID]
	return r, ok
}

// TripIDs returns the exported trip ids, sorted.
func (e *Exporter) TripIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := append([]string(nil), e.order...)
	sort.Strings(ids)
	return ids
}
