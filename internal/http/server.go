package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"viaggi/internal/cache"
	applog "viaggi/internal/log"
	"viaggi/internal/middleware/ratelimit"
	"viaggi/internal/middleware/security"
	"viaggi/internal/middleware/trace"
	"viaggi/internal/services"
	"viaggi/internal/session"
)

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

// Options configures the API server. Zero values pick defaults.
type Options struct {
	Addr              string
	RequestsPerMinute int
	TrustedProxies    []string
	Logger            *applog.Logger
	// Registry receives the request metrics and backs /metrics. A fresh
	// registry with Go and process collectors is used when nil.
	Registry             *prometheus.Registry
	Clock                session.Clock
	CacheCleanupInterval time.Duration
	// ReadinessChecks run on /readyz next to the storage ping.
	ReadinessChecks map[string]ReadinessCheck
}

type Server struct {
	http.Server
	trips    *services.TripService
	logger   *applog.Logger
	clock    session.Clock
	limiter  *ratelimit.Limiter
	detector *security.Detector
	registry *prometheus.Registry
	caches   *cache.Manager
	checks   map[string]ReadinessCheck
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(trips *services.TripService, opts Options) (*Server, error) {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Clock == nil {
		opts.Clock = session.SystemClock{}
	}
	if opts.CacheCleanupInterval <= 0 {
		opts.CacheCleanupInterval = 10 * time.Minute
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
		opts.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	detector, err := security.NewDetector(opts.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	s := &Server{
		trips:    trips,
		logger:   opts.Logger.WithComponent(applog.ComponentHTTP),
		clock:    opts.Clock,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		detector: detector,
		registry: opts.Registry,
		caches:   cache.NewManager(),
		checks:   opts.ReadinessChecks,
		started:  time.Now(),
	}

	for _, c := range trips.Caches() {
		s.caches.Register(c)
	}
	s.caches.StartCleanup(opts.CacheCleanupInterval)

	mux := http.NewServeMux()
	s.routes(mux)

	tracer := trace.NewMiddleware(detector.ExtractClientIP, trace.NewMetrics(opts.Registry), opts.Logger)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = sessionMiddleware(handler)
	handler = s.limiter.Middleware(detector.ExtractClientIP, s.onRateLimited)(handler)
	handler = s.detectSuspicious(handler)
	handler = applog.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = applog.Middleware(opts.Logger)(handler)
	handler = headers.Middleware(handler)
	handler = tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	s.handle(mux, "GET /healthz", s.handleHealth)
	s.handle(mux, "GET /readyz", s.handleReady)
	s.handle(mux, "GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}).ServeHTTP)

	s.handle(mux, "GET /api/trips", s.handleListTrips)
	s.handle(mux, "POST /api/trips", s.handleCreateTrip)
	s.handle(mux, "GET /api/trips/{id}", s.handleGetTrip)
	s.handle(mux, "PUT /api/trips/{id}", s.handleUpdateTrip)
	s.handle(mux, "DELETE /api/trips/{id}", s.handleDeleteTrip)
	s.handle(mux, "GET /api/trips/{id}/breakdown", s.handleBreakdown)
	s.handle(mux, "POST /api/trips/{id}/stops", s.handleAddStop)
	s.handle(mux, "PUT /api/trips/{id}/stops/order", s.handleReorderStops)
	s.handle(mux, "POST /api/trips/{id}/share", s.handleShareTrip)

	s.handle(mux, "PUT /api/stops/{id}", s.handleUpdateStop)
	s.handle(mux, "DELETE /api/stops/{id}", s.handleDeleteStop)
	s.handle(mux, "POST /api/stops/{id}/activities", s.handleAddActivity)
	s.handle(mux, "DELETE /api/activities/{id}", s.handleDeleteActivity)

	s.handle(mux, "GET /api/shared/{shareID}", s.handleGetShared)
	s.handle(mux, "POST /api/shared/{shareID}/copy", s.handleCopyShared)

	s.handle(mux, "GET /api/catalog/activities", s.handleSearchCatalog)
	s.handle(mux, "GET /api/catalog/activities/{id}/estimate", s.handleEstimate)
	s.handle(mux, "GET /api/cities/rates", s.handleListRates)
	s.handle(mux, "PUT /api/cities/rates/{city}", s.handleUpsertRate)
	s.handle(mux, "GET /api/stats", s.handleStats)
}

// handle registers h and reports the matched pattern to the tracer.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace.RecordRoute(r)
		h(w, r)
	}))
}

func (s *Server) detectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(),
				"Suspicious request",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldClientIP, s.detector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later", trace.GetRequestID(r.Context())).Write(w)
}

// writeError maps err to a status code and writes the error envelope.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	ctx := r.Context()
	if status >= http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Request failed", err,
			applog.ComponentHTTP, r.Method+" "+r.URL.Path, nil)
	}
	ErrorResponse(status, publicMessage(status, err), trace.GetRequestID(ctx)).Write(w)
}

// Shutdown stops background loops and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()
		s.caches.Wait()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
