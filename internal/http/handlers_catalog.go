package http

import (
	"net/http"

	"viaggi/internal/costs"
	"viaggi/internal/session"
)

func (s *Server) handleSearchCatalog(w http.ResponseWriter, r *http.Request) {
	f, err := parseCatalogFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items, err := s.trips.SearchCatalog(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]catalogView, 0, len(items))
	for _, a := range items {
		out = append(out, newCatalogView(a))
	}
	NewJSONResponse(out).Write(w)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	a, err := s.trips.CatalogActivity(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse(estimateView{
		ActivityID: a.ID,
		Name:       a.Name,
		MinCost:    money(a.MinCost),
		MaxCost:    money(a.MaxCost),
		Estimate:   money(costs.EstimateActivityCost(a)),
	}).Write(w)
}

// handleListRates returns the effective rate table: built-in rates merged
// with stored rows and file overrides.
func (s *Server) handleListRates(w http.ResponseWriter, r *http.Request) {
	table, err := s.trips.Rates().Table(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cities := table.Cities()
	out := ratesView{Default: newRateView(table.Default()), Cities: make([]rateView, 0, len(cities))}
	for _, c := range cities {
		out.Cities = append(out.Cities, newRateView(c))
	}
	NewJSONResponse(out).Write(w)
}

func (s *Server) handleUpsertRate(w http.ResponseWriter, r *http.Request) {
	if _, err := session.Require(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rates, err := req.rates(r.PathValue("city"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.trips.Rates().Upsert(r.Context(), rates); err != nil {
		s.writeError(w, r, err)
		return
	}
	effective, _, err := s.trips.Rates().Effective(r.Context(), rates.City)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse(newStoredRateView(rates, effective)).Write(w)
}
