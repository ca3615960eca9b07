package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all activity routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/activities", func(r chi.Router) {
		r.Post("/", h.HandleInsert)
		r.Get("/", h.HandleList)
	})
}
