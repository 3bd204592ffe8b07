package http

import (
	"net/http"

	applog "viaggi/internal/log"
)

func (s *Server) handleAddStop(w http.ResponseWriter, r *http.Request) {
	var req stopRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stop, err := s.trips.AddStop(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logTripChange(r, applog.OpUpdate, stop.TripID)
	NewJSONResponse(newStopView(stop)).Status(http.StatusCreated).Write(w)
}

func (s *Server) handleUpdateStop(w http.ResponseWriter, r *http.Request) {
	var req stopRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stop, err := s.trips.UpdateStop(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logTripChange(r, applog.OpUpdate, stop.TripID)
	NewJSONResponse(newStopView(stop)).Write(w)
}

func (s *Server) handleDeleteStop(w http.ResponseWriter, r *http.Request) {
	if err := s.trips.DeleteStop(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleReorderStops(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	tripID := r.PathValue("id")
	stops, err := s.trips.ReorderStops(r.Context(), tripID, req.StopIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logTripChange(r, applog.OpReorder, tripID)
	out := make([]stopView, 0, len(stops))
	for _, st := range stops {
		out = append(out, newStopView(st))
	}
	NewJSONResponse(out).Write(w)
}

func (s *Server) handleAddActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.trips.AddActivity(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse(newActivityView(a)).Status(http.StatusCreated).Write(w)
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	if err := s.trips.DeleteActivity(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}
