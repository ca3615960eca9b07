package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers report and weekly report routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Post("/", h.HandleUpsertReport)
		r.Get("/", h.HandleListReports)
		r.Get("/timeline", h.HandleTimeline)
		r.Post("/migrate-weekly", h.HandleMigrateWeekly)
		r.Get("/{reportId}", h.HandleGetReport)
	})

	r.Route("/weekly", func(r chi.Router) {
		r.Post("/", h.HandleUpsertWeekly)
		r.Get("/", h.HandleListWeekly)
		r.Get("/{id}", h.HandleGetWeekly)
	})
}
