// Package handlers provides the HTTP handler for the home page overview.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/mission-control/internal/modules/overview"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles overview HTTP requests
type Handler struct {
	service *overview.Service
	log     zerolog.Logger
}

// NewHandler creates a new overview handler
func NewHandler(service *overview.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "overview").Logger(),
	}
}

// RegisterRoutes registers the overview route
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/overview", h.HandleGetOverview)
}

// HandleGetOverview handles GET /api/overview
func (h *Handler) HandleGetOverview(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Get(time.Now())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build overview")
		http.Error(w, "Failed to build overview", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"data": o,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
