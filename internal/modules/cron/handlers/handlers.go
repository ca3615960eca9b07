// Package handlers provides HTTP handlers for cron job status.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/mission-control/internal/modules/cron"
	"github.com/rs/zerolog"
)

// Handler handles cron HTTP requests
type Handler struct {
	service *cron.Service
	log     zerolog.Logger
}

// NewHandler creates a new cron handler
func NewHandler(service *cron.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "cron").Logger(),
	}
}

// HandleUpsertJob handles POST /api/cron/jobs
func (h *Handler) HandleUpsertJob(w http.ResponseWriter, r *http.Request) {
	var job cron.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := job.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Repository().Upsert(&job); err != nil {
		h.log.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to upsert cron job")
		http.Error(w, "Failed to store cron job", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, job)
}

// HandleListJobs handles GET /api/cron/jobs
func (h *Handler) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.Repository().List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list cron jobs")
		http.Error(w, "Failed to list cron jobs", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, jobs)
}

// HandleGetView handles GET /api/cron/view
func (h *Handler) HandleGetView(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetView()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build ops view")
		http.Error(w, "Failed to build ops view", http.StatusInternalServerError)
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
