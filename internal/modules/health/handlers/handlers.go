// Package handlers provides HTTP handlers for health snapshots.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/mission-control/internal/modules/health"
	"github.com/rs/zerolog"
)

// maxHistoryDays bounds the ?days= window.
const maxHistoryDays = 366

// Handler handles health HTTP requests
type Handler struct {
	service *health.Service
	log     zerolog.Logger
}

// NewHandler creates a new health handler
func NewHandler(service *health.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "health").Logger(),
	}
}

// HandleUpsertSnapshot handles POST /api/health/snapshots
func (h *Handler) HandleUpsertSnapshot(w http.ResponseWriter, r *http.Request) {
	var snapshot health.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := snapshot.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Repository().Upsert(&snapshot); err != nil {
		h.log.Error().Err(err).Str("date", snapshot.Date).Msg("Failed to upsert health snapshot")
		http.Error(w, "Failed to store health snapshot", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, snapshot)
}

// HandleGetLatest handles GET /api/health/latest
func (h *Handler) HandleGetLatest(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Repository().GetLatest()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get latest health snapshot")
		http.Error(w, "Failed to get latest health snapshot", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, snapshot)
}

// HandleGetHistory handles GET /api/health/history?days=
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	days := health.DefaultHistoryDays
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if parsed, err := strconv.Atoi(daysStr); err == nil && parsed > 0 {
			days = min(parsed, maxHistoryDays)
		}
	}

	history, err := h.service.Repository().GetHistory(days)
	if err != nil {
		h.log.Error().Err(err).Int("days", days).Msg("Failed to get health history")
		http.Error(w, "Failed to get health history", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, history)
}

// HandleGetView handles GET /api/health/view
func (h *Handler) HandleGetView(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetView()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build health view")
		http.Error(w, "Failed to build health view", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, view)
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
