package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all agent routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/agents", func(r chi.Router) {
		r.Post("/", h.HandleUpsert)
		r.Get("/", h.HandleList)
	})
}
