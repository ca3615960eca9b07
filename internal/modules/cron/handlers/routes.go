package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all cron routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/cron", func(r chi.Router) {
		r.Post("/jobs", h.HandleUpsertJob)
		r.Get("/jobs", h.HandleListJobs)
		r.Get("/view", h.HandleGetView)
	})
}
