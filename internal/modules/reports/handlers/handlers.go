// Package handlers provides HTTP handlers for weight report files.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/modules/reports"
)

// Handler handles report HTTP requests
type Handler struct {
	writer *reports.Writer
	log    zerolog.Logger
}

// NewHandler creates a new reports handler
func NewHandler(writer *reports.Writer, log zerolog.Logger) *Handler {
	return &Handler{
		writer: writer,
		log:    log.With().Str("handler", "reports").Logger(),
	}
}

// HandleListReports handles GET /api/reports
func (h *Handler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	names, err := h.writer.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list reports")
		http.Error(w, "Failed to list reports", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"reports": names,
			"count":   len(names),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDownloadReport handles GET /api/reports/{name}
func (h *Handler) HandleDownloadReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	path, err := h.writer.Open(name)
	if err != nil {
		http.Error(w, "Report not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	http.ServeFile(w, r, path)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
