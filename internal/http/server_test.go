package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	applog "viaggi/internal/log"
	"viaggi/internal/services"
	"viaggi/internal/session"
	"viaggi/internal/storage/memory"
)

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	clock := session.FixedClock(testNow)
	svc := services.NewTripService(memory.New(nil), services.Options{Clock: clock, CatalogTTL: time.Minute})
	opts.Clock = clock
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard})
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	srv, err := NewServer(svc, opts)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

type client struct {
	t    *testing.T
	srv  *Server
	user string
}

func (c client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			c.t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.Header.Set("Authorization", "Bearer token-"+c.user)
		req.Header.Set("X-User-ID", c.user)
	}
	rec := httptest.NewRecorder()
	c.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

func createTrip(t *testing.T, c client) tripView {
	t.Helper()
	rec := c.do("POST", "/api/trips", map[string]string{
		"name": "Paris", "start_date": "2025-06-01", "end_date": "2025-06-04",
	})
	expectStatus(t, rec, http.StatusCreated)
	return decode[tripView](t, rec)
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Options{ReadinessChecks: map[string]ReadinessCheck{
		"amqp": func(context.Context) error { return errors.New("connection refused") },
	}})
	c := client{t: t, srv: srv}

	expectStatus(t, c.do("GET", "/healthz", nil), http.StatusOK)

	rec := c.do("GET", "/readyz", nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)
	body := decode[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](t, rec)
	if body.Checks["storage"] != "ok" || !strings.HasPrefix(body.Checks["amqp"], "failed") {
		t.Fatalf("unexpected checks: %+v", body)
	}
}

func TestTripLifecycleAndBreakdown(t *testing.T) {
	c := client{t: t, srv: newTestServer(t, Options{}), user: "alice"}
	trip := createTrip(t, c)
	if trip.Status != "upcoming" || trip.OwnerID != "alice" {
		t.Fatalf("unexpected trip: %+v", trip)
	}

	rec := c.do("POST", "/api/trips/"+trip.ID+"/stops", map[string]string{
		"city_name": "Paris", "start_date": "2025-06-01", "end_date": "2025-06-04",
	})
	expectStatus(t, rec, http.StatusCreated)
	stop := decode[stopView](t, rec)

	rec = c.do("POST", "/api/stops/"+stop.ID+"/activities", map[string]any{"custom_name": "Boat tour", "estimated_cost": "25.00"})
	expectStatus(t, rec, http.StatusCreated)

	rec = c.do("GET", "/api/trips/"+trip.ID+"/breakdown", nil)
	expectStatus(t, rec, http.StatusOK)
	b := decode[breakdownView](t, rec)
	if b.Total.Cents != 53500 || b.Total.Formatted != "$535.00" {
		t.Errorf("total = %+v", b.Total)
	}
	if b.PerDayAverage.Cents != 17833 || b.TotalDays != 3 {
		t.Errorf("per day = %+v, days = %d", b.PerDayAverage, b.TotalDays)
	}
	if len(b.Stops) != 1 || b.Stops[0].FallbackRate {
		t.Errorf("stops = %+v", b.Stops)
	}
	if len(b.Categories) != 4 {
		t.Errorf("categories = %+v", b.Categories)
	}

	rec = c.do("PUT", "/api/trips/"+trip.ID, map[string]string{
		"name": "Paris again", "start_date": "2025-06-01", "end_date": "2025-06-05",
	})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[tripView](t, rec).Name; got != "Paris again" {
		t.Errorf("name = %q", got)
	}

	rec = c.do("GET", "/api/trips", nil)
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]tripView](t, rec); len(list) != 1 || len(list[0].Stops) != 1 {
		t.Fatalf("list = %+v", list)
	}

	expectStatus(t, c.do("DELETE", "/api/trips/"+trip.ID, nil), http.StatusNoContent)
	expectStatus(t, c.do("GET", "/api/trips/"+trip.ID, nil), http.StatusNotFound)
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t, Options{})
	alice := client{t: t, srv: srv, user: "alice"}
	bob := client{t: t, srv: srv, user: "bob"}
	anon := client{t: t, srv: srv}
	trip := createTrip(t, alice)

	tests := []struct {
		name   string
		c      client
		method string
		path   string
		body   any
		want   int
	}{
		{"no session", anon, "GET", "/api/trips", nil, http.StatusUnauthorized},
		{"bad json", alice, "POST", "/api/trips", "{", http.StatusBadRequest},
		{"unknown field", alice, "POST", "/api/trips", `{"nam":"x"}`, http.StatusBadRequest},
		{"empty name", alice, "POST", "/api/trips", map[string]string{"name": " ", "start_date": "2025-01-01", "end_date": "2025-01-02"}, http.StatusUnprocessableEntity},
		{"bad date", alice, "POST", "/api/trips", map[string]string{"name": "x", "start_date": "01/01/2025", "end_date": "2025-01-02"}, http.StatusUnprocessableEntity},
		{"inverted dates", alice, "POST", "/api/trips", map[string]string{"name": "x", "start_date": "2025-01-05", "end_date": "2025-01-02"}, http.StatusUnprocessableEntity},
		{"missing trip", alice, "GET", "/api/trips/nope", nil, http.StatusNotFound},
		{"other owner", bob, "GET", "/api/trips/" + trip.ID, nil, http.StatusForbidden},
		{"other owner delete", bob, "DELETE", "/api/trips/" + trip.ID, nil, http.StatusForbidden},
		{"bad reorder", alice, "PUT", "/api/trips/" + trip.ID + "/stops/order", map[string]any{"stop_ids": []string{"x"}}, http.StatusUnprocessableEntity},
		{"bad catalog type", anon, "GET", "/api/catalog/activities?type=opera", nil, http.StatusUnprocessableEntity},
		{"bad limit", anon, "GET", "/api/catalog/activities?limit=-1", nil, http.StatusBadRequest},
		{"unknown catalog id", anon, "GET", "/api/catalog/activities/nope/estimate", nil, http.StatusNotFound},
		{"rates need session", anon, "PUT", "/api/cities/rates/Atlantis", map[string]float64{"accommodation": 10}, http.StatusUnauthorized},
		{"wrong method", alice, "PATCH", "/api/trips/" + trip.ID, nil, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.c.do(tt.method, tt.path, tt.body)
			expectStatus(t, rec, tt.want)
			if tt.want != http.StatusMethodNotAllowed {
				body := decode[errorBody](t, rec)
				if body.Error.Status != tt.want || body.Error.Message == "" || body.Error.RequestID == "" {
					t.Errorf("error body = %+v", body)
				}
			}
		})
	}
}

func TestDuplicateOrderSlotConflict(t *testing.T) {
	c := client{t: t, srv: newTestServer(t, Options{}), user: "alice"}
	trip := createTrip(t, c)
	stop := map[string]any{"city_name": "Rome", "start_date": "2025-06-01", "end_date": "2025-06-02", "order_index": 0}
	expectStatus(t, c.do("POST", "/api/trips/"+trip.ID+"/stops", stop), http.StatusCreated)
	expectStatus(t, c.do("POST", "/api/trips/"+trip.ID+"/stops", stop), http.StatusConflict)
}

func TestMalformedSessionHeaders(t *testing.T) {
	srv := newTestServer(t, Options{})
	for _, h := range []map[string]string{
		{"X-User-ID": "alice"},
		{"Authorization": "Bearer t"},
		{"Authorization": "Basic abc", "X-User-ID": "alice"},
	} {
		req := httptest.NewRequest("GET", "/api/trips", nil)
		for k, v := range h {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("headers %v: status %d", h, rec.Code)
		}
	}
}

func TestShareAndCopy(t *testing.T) {
	srv := newTestServer(t, Options{})
	alice := client{t: t, srv: srv, user: "alice"}
	bob := client{t: t, srv: srv, user: "bob"}
	anon := client{t: t, srv: srv}
	trip := createTrip(t, alice)
	expectStatus(t, alice.do("POST", "/api/trips/"+trip.ID+"/stops", map[string]string{
		"city_name": "Paris", "start_date": "2025-06-01", "end_date": "2025-06-04",
	}), http.StatusCreated)

	rec := alice.do("POST", "/api/trips/"+trip.ID+"/share", nil)
	expectStatus(t, rec, http.StatusOK)
	shareID := decode[map[string]string](t, rec)["share_id"]
	if shareID == "" {
		t.Fatal("missing share id")
	}

	rec = anon.do("GET", "/api/shared/"+shareID, nil)
	expectStatus(t, rec, http.StatusOK)
	shared := decode[sharedTripView](t, rec)
	if shared.Trip.ID != trip.ID || shared.Breakdown.Total.Cents != 51000 {
		t.Fatalf("shared = %+v", shared)
	}

	expectStatus(t, anon.do("POST", "/api/shared/"+shareID+"/copy", nil), http.StatusUnauthorized)
	rec = bob.do("POST", "/api/shared/"+shareID+"/copy", nil)
	expectStatus(t, rec, http.StatusCreated)
	cp := decode[tripView](t, rec)
	if cp.OwnerID != "bob" || cp.IsPublic || cp.ID == trip.ID || len(cp.Stops) != 1 {
		t.Fatalf("copy = %+v", cp)
	}
	if rec.Header().Get("Location") != "/api/trips/"+cp.ID {
		t.Errorf("location = %q", rec.Header().Get("Location"))
	}
}

func TestCatalogRatesAndStats(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := client{t: t, srv: srv, user: "alice"}

	rec := c.do("GET", "/api/catalog/activities?type=culture&q=museum", nil)
	expectStatus(t, rec, http.StatusOK)
	items := decode[[]catalogView](t, rec)
	if len(items) == 0 {
		t.Fatal("expected catalog matches")
	}
	for _, it := range items {
		if it.Type != "culture" {
			t.Errorf("type filter ignored: %+v", it)
		}
	}

	rec = c.do("GET", "/api/catalog/activities/museum-pass/estimate", nil)
	expectStatus(t, rec, http.StatusOK)
	if est := decode[estimateView](t, rec); est.Estimate.Cents != 2350 || est.Estimate.Formatted != "$23.50" {
		t.Errorf("estimate = %+v", est)
	}

	rec = c.do("PUT", "/api/cities/rates/Atlantis", map[string]float64{"accommodation": 10, "food": 5, "transport": 1})
	expectStatus(t, rec, http.StatusOK)
	if up := decode[storedRateView](t, rec); up.Overridden || up.Effective.PerDay.Cents != 1600 {
		t.Errorf("upsert response = %+v", up)
	}
	rec = c.do("GET", "/api/cities/rates", nil)
	expectStatus(t, rec, http.StatusOK)
	rates := decode[ratesView](t, rec)
	if rates.Default.PerDay.Cents != 13500 {
		t.Errorf("default per day = %+v", rates.Default.PerDay)
	}
	found := false
	for _, r := range rates.Cities {
		if r.City == "Atlantis" && r.PerDay.Cents == 1600 {
			found = true
		}
	}
	if !found {
		t.Error("stored rate missing from listing")
	}
	expectStatus(t, c.do("PUT", "/api/cities/rates/Atlantis", map[string]float64{"accommodation": -1}), http.StatusUnprocessableEntity)
	expectStatus(t, c.do("PUT", "/api/cities/rates/Atlantis", map[string]float64{"food": 1e300}), http.StatusUnprocessableEntity)

	createTrip(t, c)
	rec = c.do("GET", "/api/stats", nil)
	expectStatus(t, rec, http.StatusOK)
	if st := decode[statsView](t, rec); st.TotalTrips != 1 || st.UpcomingTrips != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	srv := newTestServer(t, Options{RequestsPerMinute: 2})
	c := client{t: t, srv: srv, user: "alice"}
	createTrip(t, c)
	createTrip(t, c)
	rec := c.do("POST", "/api/trips", map[string]string{"name": "x", "start_date": "2025-01-01", "end_date": "2025-01-02"})
	expectStatus(t, rec, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	expectStatus(t, c.do("GET", "/api/trips", nil), http.StatusOK)
}

func TestSecurityHeadersAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv := newTestServer(t, Options{Registry: reg})
	c := client{t: t, srv: srv}

	rec := c.do("GET", "/healthz", nil)
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing headers: %v", rec.Header())
	}

	rec = c.do("GET", "/metrics", nil)
	expectStatus(t, rec, http.StatusOK)
	want := fmt.Sprintf(`viaggi_http_requests_total{code="200",method="GET",route=%q} 1`, "GET /healthz")
	if !strings.Contains(rec.Body.String(), want) {
		t.Fatalf("metrics output missing %q:\n%s", want, rec.Body.String())
	}
}
