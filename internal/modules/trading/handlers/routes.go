package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all trading routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/trading", func(r chi.Router) {
		r.Route("/strategies", func(r chi.Router) {
			r.Post("/", h.HandleUpsertStrategy)
			r.Get("/", h.HandleListStrategies)
			r.Get("/{strategyId}", h.HandleGetStrategy)
		})

		r.Route("/trades", func(r chi.Router) {
			r.Post("/", h.HandleUpsertTrade)
			r.Get("/", h.HandleRecentTrades)
		})

		r.Get("/view", h.HandleGetView)
	})
}
