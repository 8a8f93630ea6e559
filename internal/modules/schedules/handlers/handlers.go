// Package handlers provides HTTP handlers for schedule validation.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/modules/calendar"
	"github.com/aristath/ballast/internal/modules/schedules"
)

// Handler handles schedule HTTP requests
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new schedules handler
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{
		log: log.With().Str("handler", "schedules").Logger(),
	}
}

// ValidateRequest is the wire form of a schedule validation.
type ValidateRequest struct {
	BuildDate   string               `json:"build_date"`
	Conversions []schedules.Interval `json:"conversion_intervals"`
	Calls       []schedules.Interval `json:"call_intervals"`
}

// HandleValidate handles POST /api/schedules/validate
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	buildDate, err := time.Parse(calendar.DateLayout, req.BuildDate)
	if err != nil {
		http.Error(w, "Invalid build_date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	result, err := schedules.Validate(req.Conversions, req.Calls, buildDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !result.Valid {
		h.log.Warn().
			Int("violations", len(result.Violations)).
			Str("build_date", req.BuildDate).
			Msg("Schedule validation found uncovered call windows")
	}

	response := map[string]interface{}{
		"data": result,
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
