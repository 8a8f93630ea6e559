package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all index definition routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/indexes", func(r chi.Router) {
		r.Get("/", h.HandleListIndexes)
		r.Get("/{id}", h.HandleGetIndex)
		r.Put("/{id}", h.HandleSaveIndex)
		r.Patch("/{id}/enabled", h.HandleSetEnabled)
		r.Delete("/{id}", h.HandleDeleteIndex)
	})
}
