package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all progress routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/progress", func(r chi.Router) {
		r.Post("/character", h.HandleUpsertCharacter)
		r.Get("/character", h.HandleGetCharacter)
		r.Post("/ziolo", h.HandleUpsertZiolo)
		r.Get("/ziolo", h.HandleGetZiolo)
		r.Get("/view", h.HandleGetView)
	})
}
