package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all health routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/health", func(r chi.Router) {
		r.Post("/snapshots", h.HandleUpsertSnapshot)
		r.Get("/latest", h.HandleGetLatest)
		r.Get("/history", h.HandleGetHistory)
		r.Get("/view", h.HandleGetView)
	})
}
