package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"retail-intel/internal/db"
	"retail-intel/internal/engine"
	"retail-intel/internal/format"
	"retail-intel/internal/models"
	"retail-intel/internal/resolver"
)

// Handlers contains HTTP handlers and their dependencies
type Handlers struct {
	db       *db.DB
	engine   *engine.Engine
	resolver *resolver.Resolver
	log      *zap.Logger

	searchLimit int
}

// NewHandlers creates a new Handlers instance
func NewHandlers(database *db.DB, eng *engine.Engine, res *resolver.Resolver, log *zap.Logger, searchLimit int) *Handlers {
	if searchLimit <= 0 {
		searchLimit = 5
	}
	return &Handlers{
		db:          database,
		engine:      eng,
		resolver:    res,
		log:         log,
		searchLimit: searchLimit,
	}
}

// ListLocations handles GET /api/locations
func (h *Handlers) ListLocations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := db.LocationFilter{}

	if v := q.Get("type"); v != "" {
		filter.Types = strings.Split(v, ",")
	}
	filter.City = q.Get("city")

	if v := q.Get("min_stores"); v != "" {
		if val, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MinStores = &val
		}
	}
	if v := q.Get("limit"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 && val <= 500 {
			filter.Limit = val
		}
	}
	if v := q.Get("offset"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			filter.Offset = val
		}
	}

	locations, err := h.db.ListLocations(r.Context(), filter)
	if err != nil {
		h.serverError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"locations": locations,
		"count":     len(locations),
	})
}

// GetLocation handles GET /api/locations/{id}
func (h *Handlers) GetLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	location, err := h.db.GetLocation(r.Context(), id)
	if err != nil {
		http.Error(w, "location not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, location)
}

// GetLocationDetails handles GET /api/locations/{id}/details
func (h *Handlers) GetLocationDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	detail := detailLevel(r.URL.Query().Get("detail"))

	location, err := h.db.GetLocation(r.Context(), id)
	if err != nil {
		http.Error(w, "location not found", http.StatusNotFound)
		return
	}

	formatted := format.LocationDetails(location, detail)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"location": location,
		"summary":  formatted.Summary,
		"details":  formatted.Details,
		"insights": formatted.Insights,
	})
}

// SearchLocations handles GET /api/locations/search
func (h *Handlers) SearchLocations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	text := q.Get("q")
	if text == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	limit := h.searchLimit
	if v := q.Get("limit"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 && val <= 50 {
			limit = val
		}
	}

	matches := h.resolver.Search(text, limit, q.Get("city"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"count":   len(matches),
	})
}

// GetCategoryDistribution handles GET /api/locations/{id}/category-distribution
func (h *Handlers) GetCategoryDistribution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	radiusKm := parseRadius(r)

	var distribution []models.CategoryDistribution
	var err error
	if radiusKm > 0 {
		distribution, err = h.engine.AreaCategoryDistribution(r.Context(), id, radiusKm)
	} else {
		var target *engine.TargetSummary
		target, err = h.engine.CategoryDistribution(r.Context(), id)
		if target != nil {
			distribution = target.Categories
		}
	}
	if err != nil {
		h.engineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"location_id":  id,
		"radius_km":    radiusKm,
		"distribution": distribution,
	})
}

// GetLargestCategories handles GET /api/locations/{id}/largest-categories
func (h *Handlers) GetLargestCategories(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	radiusKm := parseRadius(r)

	aggregates, err := h.engine.LargestCategories(r.Context(), id, radiusKm)
	if err != nil {
		h.engineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"location_id":        id,
		"largest_categories": aggregates,
	})
}

// GetNearbyCompetitors handles GET /api/locations/{id}/nearby-competitors
func (h *Handlers) GetNearbyCompetitors(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	radiusKm := parseRadius(r)

	var minStores *int64
	if v := r.URL.Query().Get("min_stores"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			minStores = &n
		}
	}

	competitors, err := h.engine.NearbyCompetitors(r.Context(), id, radiusKm, minStores)
	if err != nil {
		h.engineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"location_id": id,
		"competitors": competitors,
		"count":       len(competitors),
	})
}

// gapAnalysisRequest is the POST /api/gap-analysis body.
type gapAnalysisRequest struct {
	TargetID      string   `json:"target_id"`
	CompetitorIDs []string `json:"competitor_ids"`
	RadiusKm      float64  `json:"radius_km"`
	Detailed      bool     `json:"detailed"`
}

// GapAnalysis handles POST /api/gap-analysis
func (h *Handlers) GapAnalysis(w http.ResponseWriter, r *http.Request) {
	var req gapAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.TargetID == "" {
		http.Error(w, "target_id is required", http.StatusBadRequest)
		return
	}

	analysis, err := h.engine.PerformGapAnalysis(r.Context(), req.TargetID, req.CompetitorIDs, req.RadiusKm, req.Detailed)
	if err != nil {
		h.engineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.db.GetLocationCount(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"locations": count,
	})
}

// engineError maps engine sentinels onto HTTP statuses.
func (h *Handlers) engineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrLocationNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, engine.ErrMissingCoordinates),
		errors.Is(err, engine.ErrNoCompetitorsResolved):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.serverError(w, err)
	}
}

func (h *Handlers) serverError(w http.ResponseWriter, err error) {
	h.log.Error("request failed", zap.Error(err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseRadius(r *http.Request) float64 {
	if v := r.URL.Query().Get("radius_km"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil && val > 0 {
			return val
		}
	}
	return 0
}

func detailLevel(v string) string {
	if v == format.DetailDetailed {
		return format.DetailDetailed
	}
	return format.DetailHigh
}
