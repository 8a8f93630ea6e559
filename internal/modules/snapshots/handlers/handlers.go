// Package handlers provides HTTP handlers for stored valuation runs.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/modules/snapshots"
)

// Handler handles snapshot HTTP requests
type Handler struct {
	repo *snapshots.Repository
	log  zerolog.Logger
}

// NewHandler creates a new snapshots handler
func NewHandler(repo *snapshots.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "snapshots").Logger(),
	}
}

// HandleListRuns handles GET /api/snapshots
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	indexID := r.URL.Query().Get("index_id")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	runs, err := h.repo.List(r.Context(), indexID, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list valuation runs")
		http.Error(w, "Failed to list valuation runs", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"runs":  runs,
			"count": len(runs),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetRun handles GET /api/snapshots/{id}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.repo.Get(r.Context(), id)
	if errors.Is(err, snapshots.ErrNotFound) {
		http.Error(w, "Valuation run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("run_id", id).Msg("Failed to load valuation run")
		http.Error(w, "Failed to load valuation run", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": run,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleLatestRun handles GET /api/snapshots/latest/{indexId}
func (h *Handler) HandleLatestRun(w http.ResponseWriter, r *http.Request) {
	indexID := chi.URLParam(r, "indexId")

	run, err := h.repo.Latest(r.Context(), indexID)
	if errors.Is(err, snapshots.ErrNotFound) {
		http.Error(w, "No valuation runs for index", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("index_id", indexID).Msg("Failed to load latest run")
		http.Error(w, "Failed to load latest run", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": run,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
