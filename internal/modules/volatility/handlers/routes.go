package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all volatility diagnostic routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/volatility", func(r chi.Router) {
		r.Post("/realized", h.HandleRealized)
		r.Post("/garch", h.HandleGARCH)
	})
}
