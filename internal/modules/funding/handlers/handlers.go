// Package handlers provides HTTP handlers for funding-rate fixings.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/modules/calendar"
	"github.com/aristath/ballast/internal/modules/funding"
)

// Handler handles funding-rate HTTP requests
type Handler struct {
	repo *funding.Repository
	log  zerolog.Logger
}

// NewHandler creates a new funding handler
func NewHandler(repo *funding.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "funding").Logger(),
	}
}

// HandleListFixings handles GET /api/funding/fixings?from=...&to=...
func (h *Handler) HandleListFixings(w http.ResponseWriter, r *http.Request) {
	to := time.Now().UTC()
	from := to.AddDate(-1, 0, 0)

	if s := r.URL.Query().Get("from"); s != "" {
		parsed, err := time.Parse(calendar.DateLayout, s)
		if err != nil {
			http.Error(w, "Invalid from date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		from = parsed
	}
	if s := r.URL.Query().Get("to"); s != "" {
		parsed, err := time.Parse(calendar.DateLayout, s)
		if err != nil {
			http.Error(w, "Invalid to date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		to = parsed
	}

	fixings, err := h.repo.ListFixings(r.Context(), from, to)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list funding fixings")
		http.Error(w, "Failed to list funding fixings", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": fixings,
		"metadata": map[string]interface{}{
			"count":     len(fixings),
			"from":      from.Format(calendar.DateLayout),
			"to":        to.Format(calendar.DateLayout),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// FixingRequest is the wire form of one fixing upsert.
type FixingRequest struct {
	Date   string  `json:"date"`
	Rate   float64 `json:"rate"`
	Source string  `json:"source,omitempty"`
}

// HandleSaveFixing handles PUT /api/funding/fixings
func (h *Handler) HandleSaveFixing(w http.ResponseWriter, r *http.Request) {
	var req FixingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	date, err := time.Parse(calendar.DateLayout, req.Date)
	if err != nil {
		http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	if err := h.repo.SaveFixing(r.Context(), date, req.Rate, req.Source); err != nil {
		h.log.Error().Err(err).Str("date", req.Date).Msg("Failed to save funding fixing")
		http.Error(w, "Failed to save funding fixing", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"date": req.Date,
			"rate": req.Rate,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleLatestFixing handles GET /api/funding/fixings/latest?date=...
func (h *Handler) HandleLatestFixing(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC()
	if s := r.URL.Query().Get("date"); s != "" {
		parsed, err := time.Parse(calendar.DateLayout, s)
		if err != nil {
			http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	fixing, found, err := h.repo.LatestAtOrBefore(r.Context(), date)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load funding fixing")
		http.Error(w, "Failed to load funding fixing", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "No fixing at or before date", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"data": fixing,
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
