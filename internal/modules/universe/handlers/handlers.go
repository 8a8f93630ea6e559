// Package handlers provides HTTP handlers for return-history ingestion
// and inspection.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/modules/calendar"
	"github.com/aristath/ballast/internal/modules/universe"
)

// CalendarLoader builds the business-day calendar used for gap filling
// during ingestion.
type CalendarLoader interface {
	Load(name string) (*calendar.Calendar, error)
}

// Handler handles return-history HTTP requests
type Handler struct {
	repo      *universe.Repository
	calendars CalendarLoader
	log       zerolog.Logger
}

// NewHandler creates a new universe handler
func NewHandler(repo *universe.Repository, calendars CalendarLoader, log zerolog.Logger) *Handler {
	return &Handler{
		repo:      repo,
		calendars: calendars,
		log:       log.With().Str("handler", "universe").Logger(),
	}
}

// HandleListAssets handles GET /api/universe/assets
func (h *Handler) HandleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.repo.ListAssets(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list assets")
		http.Error(w, "Failed to list assets", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": assets,
		"metadata": map[string]interface{}{
			"count":     len(assets),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// ClosePointRequest is the wire form of one daily close.
type ClosePointRequest struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// UpsertClosesRequest carries a batch of closes for one asset. Calendar
// names the holiday set used for business-day gap filling; empty means
// weekends only.
type UpsertClosesRequest struct {
	Calendar string              `json:"calendar,omitempty"`
	Closes   []ClosePointRequest `json:"closes"`
}

// HandleUpsertCloses handles PUT /api/universe/{assetId}/closes
func (h *Handler) HandleUpsertCloses(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetId")

	var req UpsertClosesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Closes) == 0 {
		http.Error(w, "No closes provided", http.StatusBadRequest)
		return
	}

	points := make([]universe.ClosePoint, 0, len(req.Closes))
	for _, c := range req.Closes {
		date, err := time.Parse(calendar.DateLayout, c.Date)
		if err != nil {
			http.Error(w, "Invalid close date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		points = append(points, universe.ClosePoint{Date: date, Close: c.Close})
	}

	cal, err := h.calendars.Load(req.Calendar)
	if err != nil {
		h.log.Error().Err(err).Str("calendar", req.Calendar).Msg("Failed to load calendar")
		http.Error(w, "Failed to load calendar", http.StatusInternalServerError)
		return
	}

	written, err := h.repo.UpsertCloses(r.Context(), assetID, cal, points)
	if err != nil {
		h.log.Error().Err(err).Str("asset_id", assetID).Msg("Failed to upsert closes")
		http.Error(w, "Failed to store closes", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"asset_id":     assetID,
			"rows_written": written,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetReturns handles GET /api/universe/{assetId}/returns?to=...&limit=...
func (h *Handler) HandleGetReturns(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetId")

	end := time.Now().UTC()
	if s := r.URL.Query().Get("to"); s != "" {
		parsed, err := time.Parse(calendar.DateLayout, s)
		if err != nil {
			http.Error(w, "Invalid to date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		end = parsed
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	series, err := h.repo.ReturnSeries(r.Context(), assetID, end, limit)
	if err != nil {
		h.log.Error().Err(err).Str("asset_id", assetID).Msg("Failed to load return series")
		http.Error(w, "Failed to load return series", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": series,
		"metadata": map[string]interface{}{
			"count":     len(series),
			"to":        end.Format(calendar.DateLayout),
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
