// Package handlers provides HTTP handlers for character and habit tracker state.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/mission-control/internal/modules/progress"
	"github.com/rs/zerolog"
)

// Handler handles progress HTTP requests
type Handler struct {
	service *progress.Service
	log     zerolog.Logger
}

// NewHandler creates a new progress handler
func NewHandler(service *progress.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "progress").Logger(),
	}
}

// HandleUpsertCharacter handles POST /api/progress/character
func (h *Handler) HandleUpsertCharacter(w http.ResponseWriter, r *http.Request) {
	var state progress.CharacterState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := state.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Repository().UpsertCharacter(&state); err != nil {
		h.log.Error().Err(err).Msg("Failed to upsert character")
		http.Error(w, "Failed to store character", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, state)
}

// HandleGetCharacter handles GET /api/progress/character
func (h *Handler) HandleGetCharacter(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Repository().GetCharacter()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get character")
		http.Error(w, "Failed to get character", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, state)
}

// HandleUpsertZiolo handles POST /api/progress/ziolo
func (h *Handler) HandleUpsertZiolo(w http.ResponseWriter, r *http.Request) {
	var tracker progress.ZioloTracker
	if err := json.NewDecoder(r.Body).Decode(&tracker); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := tracker.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Repository().UpsertZiolo(&tracker); err != nil {
		h.log.Error().Err(err).Msg("Failed to upsert ziolo tracker")
		http.Error(w, "Failed to store ziolo tracker", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, tracker)
}

// HandleGetZiolo handles GET /api/progress/ziolo
func (h *Handler) HandleGetZiolo(w http.ResponseWriter, r *http.Request) {
	tracker, err := h.service.Repository().GetZiolo()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get ziolo tracker")
		http.Error(w, "Failed to get ziolo tracker", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, tracker)
}

// HandleGetView handles GET /api/progress/view
func (h *Handler) HandleGetView(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetView()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build progress view")
		http.Error(w, "Failed to build progress view", http.StatusInternalServerError)
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
