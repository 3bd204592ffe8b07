package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"viaggi/internal/core"
	"viaggi/internal/services"
	"viaggi/internal/storage"
)

const maxBodyBytes = 1 << 20

// requestError is a malformed request. It carries its own status code.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a single JSON object from the request body into dst.
// Unknown fields and trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return &requestError{status: http.StatusUnsupportedMediaType, msg: "content type must be application/json"}
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &requestError{status: http.StatusRequestEntityTooLarge, msg: "request body too large"}
		}
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("invalid JSON: %v", err)
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// parseDate parses an optional YYYY-MM-DD field. A malformed date is a
// validation error.
func parseDate(field, value string) (core.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(value)
	if err != nil {
		return core.Date{}, &services.ValidationError{Err: fmt.Errorf("%s: %w", field, err)}
	}
	return d, nil
}

type tripRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

func (req tripRequest) input() (services.TripInput, error) {
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return services.TripInput{}, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return services.TripInput{}, err
	}
	return services.TripInput{
		Name:        sanitizeInput(req.Name),
		Description: sanitizeInput(req.Description),
		StartDate:   start,
		EndDate:     end,
	}, nil
}

type stopRequest struct {
	CityName   string `json:"city_name"`
	Country    string `json:"country"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	OrderIndex *int   `json:"order_index"`
	Notes      string `json:"notes"`
}

func (req stopRequest) input() (services.StopInput, error) {
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return services.StopInput{}, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return services.StopInput{}, err
	}
	return services.StopInput{
		CityName:   sanitizeInput(req.CityName),
		Country:    sanitizeInput(req.Country),
		StartDate:  start,
		EndDate:    end,
		OrderIndex: req.OrderIndex,
		Notes:      sanitizeInput(req.Notes),
	}, nil
}

// activityRequest takes the cost as a decimal dollar amount, either a JSON
// number or a string such as "12.50".
type activityRequest struct {
	ActivityID    string          `json:"activity_id"`
	CustomName    string          `json:"custom_name"`
	EstimatedCost json.RawMessage `json:"estimated_cost"`
	DurationHours float64         `json:"duration_hours"`
	Notes         string          `json:"notes"`
	ScheduledTime string          `json:"scheduled_time"`
}

func (req activityRequest) input() (services.ActivityInput, error) {
	in := services.ActivityInput{
		ActivityID:    sanitizeInput(req.ActivityID),
		CustomName:    sanitizeInput(req.CustomName),
		DurationHours: req.DurationHours,
		Notes:         sanitizeInput(req.Notes),
		ScheduledTime: sanitizeInput(req.ScheduledTime),
	}
	raw := strings.TrimSpace(string(req.EstimatedCost))
	if raw == "" || raw == "null" {
		return in, nil
	}
	raw = strings.Trim(raw, `"`)
	cents, err := core.ParseDecimalToCents(raw)
	if err != nil {
		return services.ActivityInput{}, &services.ValidationError{Err: fmt.Errorf("estimated_cost: %w", err)}
	}
	in.EstimatedCost = &core.Money{Cents: cents}
	return in, nil
}

type reorderRequest struct {
	StopIDs []string `json:"stop_ids"`
}

type rateRequest struct {
	Country       string  `json:"country"`
	Accommodation float64 `json:"accommodation"`
	Food          float64 `json:"food"`
	Transport     float64 `json:"transport"`
	CostIndex     float64 `json:"cost_index"`
}

func (req rateRequest) rates(city string) (core.CityRates, error) {
	r := core.CityRates{
		City:      sanitizeInput(city),
		Country:   sanitizeInput(req.Country),
		CostIndex: req.CostIndex,
	}
	amounts := []struct {
		field string
		in    float64
		out   *core.Money
	}{
		{"accommodation", req.Accommodation, &r.Accommodation},
		{"food", req.Food, &r.Food},
		{"transport", req.Transport, &r.Transport},
	}
	for _, a := range amounts {
		m, err := core.ParseFloatAmount(a.in)
		if err != nil {
			return core.CityRates{}, &services.ValidationError{Err: fmt.Errorf("%s: %w", a.field, err)}
		}
		*a.out = m
	}
	return r, nil
}

const (
	defaultCatalogLimit = 50
	maxCatalogLimit     = 200
)

// parseCatalogFilter reads type, q and limit from the query string.
func parseCatalogFilter(q url.Values) (storage.CatalogFilter, error) {
	f := storage.CatalogFilter{
		Query: sanitizeInput(q.Get("q")),
		Type:  core.ActivityType(strings.ToLower(strings.TrimSpace(q.Get("type")))),
		Limit: defaultCatalogLimit,
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return storage.CatalogFilter{}, badRequest("limit must be a positive integer")
		}
		f.Limit = min(n, maxCatalogLimit)
	}
	return f, nil
}
