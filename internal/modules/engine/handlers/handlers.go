// Package handlers provides HTTP handlers for running valuations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/modules/calendar"
	"github.com/aristath/ballast/internal/modules/engine"
	"github.com/aristath/ballast/internal/modules/indexes"
	"github.com/aristath/ballast/internal/modules/snapshots"
	"github.com/aristath/ballast/internal/services"
)

// Handler handles valuation HTTP requests
type Handler struct {
	valuations *services.ValuationService
	runs       *snapshots.Repository
	log        zerolog.Logger
}

// NewHandler creates a new engine handler
func NewHandler(valuations *services.ValuationService, runs *snapshots.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		valuations: valuations,
		runs:       runs,
		log:        log.With().Str("handler", "engine").Logger(),
	}
}

// ValuationRequest is the wire form of a valuation trigger. An empty
// date means today.
type ValuationRequest struct {
	IndexID string `json:"index_id"`
	Date    string `json:"date,omitempty"`
}

// HandleRunValuation handles POST /api/engine/valuations
func (h *Handler) HandleRunValuation(w http.ResponseWriter, r *http.Request) {
	var req ValuationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.IndexID == "" {
		http.Error(w, "index_id is required", http.StatusBadRequest)
		return
	}

	valuationDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.Date != "" {
		parsed, err := time.Parse(calendar.DateLayout, req.Date)
		if err != nil {
			http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		valuationDate = parsed
	}

	outcome, err := h.valuations.ValuateIndex(r.Context(), req.IndexID, valuationDate)
	switch {
	case errors.Is(err, indexes.ErrNotFound):
		http.Error(w, "Index not found", http.StatusNotFound)
		return
	case errors.Is(err, engine.ErrInsufficientHistory),
		errors.Is(err, engine.ErrConfigurationMismatch):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		h.log.Error().Err(err).Str("index_id", req.IndexID).Msg("Valuation failed")
		http.Error(w, "Valuation failed", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": outcome,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetValuation handles GET /api/engine/valuations/{id}
func (h *Handler) HandleGetValuation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.runs.Get(r.Context(), id)
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

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
