// Package handlers provides HTTP handlers for the meal log and meal plans.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/mission-control/internal/modules/meals"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxLogDays bounds the ?days= window.
const maxLogDays = 366

// Handler handles meals HTTP requests
type Handler struct {
	service *meals.Service
	log     zerolog.Logger
}

// NewHandler creates a new meals handler
func NewHandler(service *meals.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "meals").Logger(),
	}
}

// ReplaceDayRequest is the body of PUT /api/meals/log/{date}
type ReplaceDayRequest struct {
	Meals []meals.Entry `json:"meals"`
}

// HandleReplaceDay handles PUT /api/meals/log/{date}
func (h *Handler) HandleReplaceDay(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	var req ReplaceDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := meals.ValidateDay(date, req.Meals); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := h.service.Repository().ReplaceDay(date, req.Meals)
	if err != nil {
		h.log.Error().Err(err).Str("date", date).Msg("Failed to replace meal log")
		http.Error(w, "Failed to store meal log", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, entries)
}

// HandleGetLog handles GET /api/meals/log?days=
func (h *Handler) HandleGetLog(w http.ResponseWriter, r *http.Request) {
	days := meals.DefaultLogDays
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if parsed, err := strconv.Atoi(daysStr); err == nil && parsed > 0 {
			days = min(parsed, maxLogDays)
		}
	}

	entries, err := h.service.Repository().GetLog(days)
	if err != nil {
		h.log.Error().Err(err).Int("days", days).Msg("Failed to get meal log")
		http.Error(w, "Failed to get meal log", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, entries)
}

// HandleUpsertPlan handles POST /api/meals/plans
func (h *Handler) HandleUpsertPlan(w http.ResponseWriter, r *http.Request) {
	var plan meals.Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := plan.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Repository().UpsertPlan(&plan); err != nil {
		h.log.Error().Err(err).Str("week_label", plan.WeekLabel).Msg("Failed to upsert meal plan")
		http.Error(w, "Failed to store meal plan", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, plan)
}

// HandleGetLatestPlan handles GET /api/meals/plans/latest
func (h *Handler) HandleGetLatestPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.Repository().LatestPlan()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get latest meal plan")
		http.Error(w, "Failed to get latest meal plan", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, plan)
}

// HandleGetView handles GET /api/meals/view
func (h *Handler) HandleGetView(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetView(time.Now())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build meals view")
		http.Error(w, "Failed to build meals view", http.StatusInternalServerError)
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
