// Package handlers provides HTTP handlers for the activity log.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/mission-control/internal/modules/activities"
	"github.com/rs/zerolog"
)

const (
	defaultDays = 7
	maxDays     = 366
)

// Handler handles activity HTTP requests
type Handler struct {
	repo *activities.Repository
	log  zerolog.Logger
}

// NewHandler creates a new activities handler
func NewHandler(repo *activities.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "activities").Logger(),
	}
}

// HandleInsert handles POST /api/activities
func (h *Handler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	var activity activities.Activity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := activity.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.repo.Insert(&activity); err != nil {
		h.log.Error().Err(err).Msg("Failed to insert activity")
		http.Error(w, "Failed to store activity", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusCreated, activity)
}

// HandleList handles GET /api/activities?days=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	days := defaultDays
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if parsed, err := strconv.Atoi(daysStr); err == nil && parsed > 0 {
			days = min(parsed, maxDays)
		}
	}

	list, err := h.repo.List(days)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list activities")
		http.Error(w, "Failed to list activities", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, list)
}

func (h *Handler) respond(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
