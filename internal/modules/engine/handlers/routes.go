package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all engine routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/engine", func(r chi.Router) {
		r.Post("/valuations", h.HandleRunValuation)
		r.Get("/valuations/{id}", h.HandleGetValuation)
	})
}
