// Package handlers provides HTTP handlers for holiday calendar management.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/modules/calendar"
)

// Handler handles holiday calendar HTTP requests
type Handler struct {
	repo *calendar.Repository
	log  zerolog.Logger
}

// NewHandler creates a new calendar handler
func NewHandler(repo *calendar.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "calendar").Logger(),
	}
}

// HandleGetHolidays handles GET /api/calendar/{name}/holidays
func (h *Handler) HandleGetHolidays(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	holidays, err := h.repo.GetHolidays(name)
	if err != nil {
		h.log.Error().Err(err).Str("calendar", name).Msg("Failed to load holidays")
		http.Error(w, "Failed to load holidays", http.StatusInternalServerError)
		return
	}

	dates := make([]string, 0, len(holidays))
	for _, d := range holidays {
		dates = append(dates, d.Format(calendar.DateLayout))
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"calendar": name,
			"dates":    dates,
		},
		"metadata": map[string]interface{}{
			"count":     len(dates),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// SaveHolidaysRequest carries holiday dates to add to one calendar.
type SaveHolidaysRequest struct {
	Dates []string `json:"dates"`
}

// HandleSaveHolidays handles PUT /api/calendar/{name}/holidays
func (h *Handler) HandleSaveHolidays(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req SaveHolidaysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Dates) == 0 {
		http.Error(w, "No dates provided", http.StatusBadRequest)
		return
	}

	dates := make([]time.Time, 0, len(req.Dates))
	for _, s := range req.Dates {
		d, err := time.Parse(calendar.DateLayout, s)
		if err != nil {
			http.Error(w, "Invalid holiday date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		dates = append(dates, d)
	}

	for _, d := range dates {
		if err := h.repo.SaveHoliday(name, d); err != nil {
			h.log.Error().Err(err).Str("calendar", name).Msg("Failed to save holiday")
			http.Error(w, "Failed to save holidays", http.StatusInternalServerError)
			return
		}
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"calendar": name,
			"saved":    len(dates),
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
