// Package handlers provides HTTP handlers for index definition management.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/modules/indexes"
)

// Handler handles index definition HTTP requests
type Handler struct {
	repo *indexes.Repository
	log  zerolog.Logger
}

// NewHandler creates a new indexes handler
func NewHandler(repo *indexes.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "indexes").Logger(),
	}
}

// HandleListIndexes handles GET /api/indexes
func (h *Handler) HandleListIndexes(w http.ResponseWriter, r *http.Request) {
	enabledOnly := r.URL.Query().Get("enabled") == "true"

	defs, err := h.repo.List(r.Context(), enabledOnly)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list index definitions")
		http.Error(w, "Failed to list index definitions", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": defs,
		"metadata": map[string]interface{}{
			"count":     len(defs),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetIndex handles GET /api/indexes/{id}
func (h *Handler) HandleGetIndex(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	def, err := h.repo.Get(r.Context(), id)
	if errors.Is(err, indexes.ErrNotFound) {
		http.Error(w, "Index not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("index_id", id).Msg("Failed to load index definition")
		http.Error(w, "Failed to load index definition", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": def,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleSaveIndex handles PUT /api/indexes/{id}
func (h *Handler) HandleSaveIndex(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var def indexes.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if def.ID == "" {
		def.ID = id
	}
	if def.ID != id {
		http.Error(w, "Body id does not match URL", http.StatusBadRequest)
		return
	}

	if err := def.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.repo.Save(r.Context(), &def); err != nil {
		h.log.Error().Err(err).Str("index_id", id).Msg("Failed to save index definition")
		http.Error(w, "Failed to save index definition", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": def,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// EnableRequest toggles a definition without resubmitting it.
type EnableRequest struct {
	Enabled bool `json:"enabled"`
}

// HandleSetEnabled handles PATCH /api/indexes/{id}/enabled
func (h *Handler) HandleSetEnabled(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req EnableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.repo.SetEnabled(r.Context(), id, req.Enabled)
	if errors.Is(err, indexes.ErrNotFound) {
		http.Error(w, "Index not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("index_id", id).Msg("Failed to update index enablement")
		http.Error(w, "Failed to update index enablement", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"id":      id,
			"enabled": req.Enabled,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDeleteIndex handles DELETE /api/indexes/{id}
func (h *Handler) HandleDeleteIndex(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.repo.Delete(r.Context(), id)
	if errors.Is(err, indexes.ErrNotFound) {
		http.Error(w, "Index not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("index_id", id).Msg("Failed to delete index definition")
		http.Error(w, "Failed to delete index definition", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
