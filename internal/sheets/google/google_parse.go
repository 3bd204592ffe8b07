package google

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"viaggi/internal/core"
	ports "viaggi/internal/sheets"
)

// indexTripRows maps the trip ids in a column A values matrix to their
// 1-based sheet rows. The header row and blank cells are skipped.
func indexTripRows(values [][]interface{}) map[string]int {
	rows := make(map[string]int, len(values))
	for i, row := range values {
		if i == 0 || len(row) == 0 {
			continue
		}
		id := strings.TrimSpace(fmt.Sprint(row[0]))
		if id == "" {
			continue
		}
		if _, dup := rows[id]; !dup {
			rows[id] = i + 1
		}
	}
	return rows
}

// parseBudgetRow converts one data row (A:K) back into a BudgetRow. Only the
// trip id is required; the sheet may have reformatted the other cells.
func parseBudgetRow(values []interface{}) (ports.BudgetRow, error) {
	cells := toStrings(values)
	id := safeGet(cells, 0)
	if id == "" {
		return ports.BudgetRow{}, errors.New("missing trip id")
	}
	row := ports.BudgetRow{
		TripID:    id,
		Name:      safeGet(cells, 1),
		StartDate: parseSheetDate(safeGet(cells, 2)),
		EndDate:   parseSheetDate(safeGet(cells, 3)),
	}
	if days, err := strconv.Atoi(safeGet(cells, 4)); err == nil {
		row.Days = days
	}
	amounts := []*core.Money{&row.Accommodation, &row.Food, &row.Transport, &row.Activities, &row.Total, &row.PerDay}
	for i, dst := range amounts {
		raw := safeGet(cells, 5+i)
		if raw == "" {
			continue
		}
		cents, ok := parseDollarsToCents(raw)
		if !ok {
			return ports.BudgetRow{}, fmt.Errorf("column %s: invalid amount %q", ports.BudgetHeader[5+i], raw)
		}
		dst.Cents = cents
	}
	return row, nil
}

var sheetDateLayouts = []string{time.DateOnly, "1/2/2006", "2006/01/02", "02/01/2006"}

// parseSheetDate accepts the ISO text the client writes and the renderings
// Sheets produces when an operator retypes a date by hand. Unparseable cells
// give the zero Date.
func parseSheetDate(s string) core.Date {
	for _, layout := range sheetDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.Date{Time: t}
		}
	}
	return core.Date{}
}

func parseDollarsToCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if cents, err := core.ParseDecimalToCents(s); err == nil {
		return cents, true
	}
	// Plain float rendering, e.g. 1234.5 from UNFORMATTED_VALUE.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return core.FromFloat(f).Cents, true
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
