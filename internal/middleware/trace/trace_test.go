package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var seen string
	h := NewMiddleware(nil, nil, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("request id = %q", seen)
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("header %q does not match context id %q", rec.Header().Get(RequestIDHeader), seen)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "upstream-1" {
		t.Fatalf("upstream id not kept, got %q", seen)
	}
}

func TestMiddlewareRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/trips/{id}", func(w http.ResponseWriter, r *http.Request) {
		RecordRoute(r)
		w.WriteHeader(http.StatusNotFound)
	})
	h := NewMiddleware(nil, metrics, nil).Middleware(mux)

	for _, path := range []string{"/api/trips/a", "/api/trips/b", "/nowhere"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	if got := testutil.ToFloat64(metrics.Requests.WithLabelValues("GET /api/trips/{id}", "GET", "404")); got != 2 {
		t.Errorf("routed count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.Requests.WithLabelValues("unmatched", "GET", "404")); got != 1 {
		t.Errorf("unmatched count = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(metrics.Duration); got != 2 {
		t.Errorf("histogram series = %d, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.InFlight); got != 0 {
		t.Errorf("in flight = %v after requests finished", got)
	}
}
