// Package handlers provides HTTP handlers for agent status.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/mission-control/internal/modules/agents"
	"github.com/rs/zerolog"
)

// Handler handles agent status HTTP requests
type Handler struct {
	repo *agents.Repository
	log  zerolog.Logger
}

// NewHandler creates a new agents handler
func NewHandler(repo *agents.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "agents").Logger(),
	}
}

// HandleUpsert handles POST /api/agents
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	var status agents.Status
	if err := json.NewDecoder(r.Body).Decode(&status); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := status.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.repo.Upsert(&status); err != nil {
		h.log.Error().Err(err).Str("agent_id", status.AgentID).Msg("Failed to upsert agent status")
		http.Error(w, "Failed to store agent status", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, status)
}

// HandleList handles GET /api/agents
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list agent statuses")
		http.Error(w, "Failed to list agent statuses", http.StatusInternalServerError)
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
