package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all meals routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/meals", func(r chi.Router) {
		r.Put("/log/{date}", h.HandleReplaceDay)
		r.Get("/log", h.HandleGetLog)
		r.Post("/plans", h.HandleUpsertPlan)
		r.Get("/plans/latest", h.HandleGetLatestPlan)
		r.Get("/view", h.HandleGetView)
	})
}
