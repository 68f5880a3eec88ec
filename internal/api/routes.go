package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"retail-intel/internal/db"
	"retail-intel/internal/engine"
	"retail-intel/internal/resolver"
)

// RouterConfig carries the handler dependencies and webhook settings.
type RouterConfig struct {
	DB          *db.DB
	Engine      *engine.Engine
	Resolver    *resolver.Resolver
	Logger      *zap.Logger
	VoiceSecret string
	SearchLimit int
}

// NewRouter creates and configures the Chi router
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(RequestLogger(cfg.Logger))
	r.Use(Metrics)
	r.Use(CORS)

	h := NewHandlers(cfg.DB, cfg.Engine, cfg.Resolver, cfg.Logger, cfg.SearchLimit)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/locations", h.ListLocations)
		r.Get("/locations/search", h.SearchLocations)
		r.Get("/locations/{id}", h.GetLocation)
		r.Get("/locations/{id}/details", h.GetLocationDetails)
		r.Get("/locations/{id}/category-distribution", h.GetCategoryDistribution)
		r.Get("/locations/{id}/largest-categories", h.GetLargestCategories)
		r.Get("/locations/{id}/nearby-competitors", h.GetNearbyCompetitors)
		r.Post("/gap-analysis", h.GapAnalysis)

		r.Post("/vapi/{tool}", h.HandleVoiceTool(cfg.VoiceSecret))
	})

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
