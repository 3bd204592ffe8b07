package http

import (
	"context"
	"net/http"
	"time"

	applog "viaggi/internal/log"
	"viaggi/internal/session"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks storage and every configured dependency.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	run := func(name string, check ReadinessCheck) {
		if err := check(ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			return
		}
		checks[name] = "ok"
	}
	run("storage", s.trips.Ping)
	for name, check := range s.checks {
		run(name, check)
	}

	NewJSONResponse(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
		"rate_limiter": map[string]int64{
			"active_clients": s.limiter.GetMetrics().ClientCount,
			"rejected":       s.limiter.GetMetrics().Rejected,
		},
	}).Status(httpStatus).Write(w)
}

func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.trips.ListTrips(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	now := s.clock.Now()
	out := make([]tripView, 0, len(trips))
	for _, t := range trips {
		out = append(out, newTripView(t, now))
	}
	NewJSONResponse(out).Write(w)
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	trip, err := s.trips.CreateTrip(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logTripChange(r, applog.OpCreate, trip.ID)
	NewJSONResponse(newTripView(trip, s.clock.Now())).
		Status(http.StatusCreated).
		Header("Location", "/api/trips/"+trip.ID).
		Write(w)
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.trips.GetTrip(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse(newTripView(trip, s.clock.Now())).Write(w)
}

func (s *Server) handleUpdateTrip(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	trip, err := s.trips.UpdateTrip(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logTripChange(r, applog.OpUpdate, trip.ID)
	NewJSONResponse(newTripView(trip, s.clock.Now())).Write(w)
}

func (s *Server) handleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.trips.DeleteTrip(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logTripChange(r, applog.OpDelete, id)
	NoContent().Write(w)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	b, err := s.trips.Breakdown(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse(newBreakdownView(b)).Write(w)
}

func (s *Server) handleShareTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.trips.ShareTrip(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logTripChange(r, applog.OpShare, trip.ID)
	NewJSONResponse(map[string]string{
		"trip_id":  trip.ID,
		"share_id": trip.ShareID,
		"url":      "/api/shared/" + trip.ShareID,
	}).Write(w)
}

func (s *Server) handleGetShared(w http.ResponseWriter, r *http.Request) {
	trip, err := s.trips.GetSharedTrip(r.Context(), r.PathValue("shareID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.trips.BreakdownOf(r.Context(), trip)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse(sharedTripView{
		Trip:      newTripView(trip, s.clock.Now()),
		Breakdown: newBreakdownView(b),
	}).Write(w)
}

func (s *Server) handleCopyShared(w http.ResponseWriter, r *http.Request) {
	trip, err := s.trips.CopyTrip(r.Context(), r.PathValue("shareID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logTripChange(r, applog.OpCopy, trip.ID)
	NewJSONResponse(newTripView(trip, s.clock.Now())).
		Status(http.StatusCreated).
		Header("Location", "/api/trips/"+trip.ID).
		Write(w)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.trips.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse(newStatsView(stats)).Write(w)
}

func (s *Server) logTripChange(r *http.Request, op, tripID string) {
	userID := ""
	if sess, ok := session.FromContext(r.Context()); ok {
		userID = sess.UserID
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogTripChange(r.Context(), op, tripID, userID)
}
