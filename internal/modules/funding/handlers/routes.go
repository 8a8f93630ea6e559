package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all funding-rate routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/funding", func(r chi.Router) {
		r.Get("/fixings", h.HandleListFixings)
		r.Put("/fixings", h.HandleSaveFixing)
		r.Get("/fixings/latest", h.HandleLatestFixing)
	})
}
