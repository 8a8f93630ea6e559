package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all return-history routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/universe", func(r chi.Router) {
		r.Get("/assets", h.HandleListAssets)
		r.Put("/{assetId}/closes", h.HandleUpsertCloses)
		r.Get("/{assetId}/returns", h.HandleGetReturns)
	})
}
