// Package handlers provides HTTP handlers for scenario detection.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/modules/calendar"
	"github.com/aristath/ballast/internal/modules/scenarios"
)

// Handler handles scenario HTTP requests
type Handler struct {
	service *scenarios.Service
	log     zerolog.Logger
}

// NewHandler creates a new scenarios handler
func NewHandler(service *scenarios.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "scenarios").Logger(),
	}
}

// DetectRequest is the wire form of a detection request. Volatilities
// are optional per asset; missing ones are computed from stored history
// as of the date.
type DetectRequest struct {
	Date     string             `json:"date"`
	Window   int                `json:"window,omitempty"`
	Assets   []scenarios.Asset  `json:"assets"`
	Observed map[string]float64 `json:"observed_weights"`
}

// HandleDetect handles POST /api/scenarios/detect
func (h *Handler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	valuationDate := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse(calendar.DateLayout, req.Date)
		if err != nil {
			http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		valuationDate = parsed
	}

	detection, err := h.service.Detect(r.Context(), scenarios.DetectRequest{
		ValuationDate: valuationDate,
		Window:        req.Window,
		Assets:        req.Assets,
		Observed:      req.Observed,
	})
	if errors.Is(err, scenarios.ErrNoWeighableAssets) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Scenario detection failed")
		http.Error(w, "Scenario detection failed", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": detection,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleListScenarios handles GET /api/scenarios
func (h *Handler) HandleListScenarios(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"data": map[string]interface{}{
			"scenarios": scenarios.StandardScenarios(),
		},
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
