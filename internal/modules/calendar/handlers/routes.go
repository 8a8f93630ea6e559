package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all holiday calendar routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/calendar", func(r chi.Router) {
		r.Get("/{name}/holidays", h.HandleGetHolidays)
		r.Put("/{name}/holidays", h.HandleSaveHolidays)
	})
}
