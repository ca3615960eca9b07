// Package handlers provides HTTP handlers for reports and weekly reports.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/mission-control/internal/modules/reports"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxListLimit bounds the ?limit= parameter.
const maxListLimit = 500

// Handler handles reports HTTP requests
type Handler struct {
	service *reports.Service
	log     zerolog.Logger
}

// NewHandler creates a new reports handler
func NewHandler(service *reports.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "reports").Logger(),
	}
}

// HandleUpsertReport handles POST /api/reports
func (h *Handler) HandleUpsertReport(w http.ResponseWriter, r *http.Request) {
	var report reports.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := report.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Repository().UpsertReport(&report); err != nil {
		h.log.Error().Err(err).Str("report_id", report.ReportID).Msg("Failed to upsert report")
		http.Error(w, "Failed to store report", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, report)
}

// HandleListReports handles GET /api/reports?agent=&type=&limit=
func (h *Handler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := reports.DefaultListLimit
	if limitStr := q.Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = min(parsed, maxListLimit)
		}
	}

	list, err := h.service.Repository().ListReports(q.Get("agent"), q.Get("type"), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list reports")
		http.Error(w, "Failed to list reports", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, list)
}

// HandleGetReport handles GET /api/reports/{reportId}
func (h *Handler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportId")

	report, err := h.service.Repository().GetReport(reportID)
	if err != nil {
		h.log.Error().Err(err).Str("report_id", reportID).Msg("Failed to get report")
		http.Error(w, "Failed to get report", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, report)
}

// HandleTimeline handles GET /api/reports/timeline?agent=
func (h *Handler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	agent := r.URL.Query().Get("agent")
	if agent == "" {
		agent = reports.AllAgents
	}

	groups, err := h.service.Timeline(agent, time.Now())
	if err != nil {
		h.log.Error().Err(err).Str("agent", agent).Msg("Failed to build report timeline")
		http.Error(w, "Failed to build report timeline", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, groups)
}

// HandleMigrateWeekly handles POST /api/reports/migrate-weekly
func (h *Handler) HandleMigrateWeekly(w http.ResponseWriter, r *http.Request) {
	migrated, err := h.service.Repository().MigrateWeekly()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to migrate weekly reports")
		http.Error(w, "Failed to migrate weekly reports", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, map[string]interface{}{
		"migrated": migrated,
	})
}

// HandleUpsertWeekly handles POST /api/weekly
func (h *Handler) HandleUpsertWeekly(w http.ResponseWriter, r *http.Request) {
	var weekly reports.WeeklyReport
	if err := json.NewDecoder(r.Body).Decode(&weekly); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := weekly.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Repository().UpsertWeekly(&weekly); err != nil {
		h.log.Error().Err(err).Str("domain", weekly.Domain).Str("report_date", weekly.ReportDate).
			Msg("Failed to upsert weekly report")
		http.Error(w, "Failed to store weekly report", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, weekly)
}

// HandleListWeekly handles GET /api/weekly?domain=
func (h *Handler) HandleListWeekly(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")

	list, err := h.service.Repository().ListWeekly(domain)
	if err != nil {
		h.log.Error().Err(err).Str("domain", domain).Msg("Failed to list weekly reports")
		http.Error(w, "Failed to list weekly reports", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, list)
}

// HandleGetWeekly handles GET /api/weekly/{id}
func (h *Handler) HandleGetWeekly(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid weekly report id", http.StatusBadRequest)
		return
	}

	weekly, err := h.service.Repository().GetWeekly(id)
	if err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("Failed to get weekly report")
		http.Error(w, "Failed to get weekly report", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, weekly)
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
