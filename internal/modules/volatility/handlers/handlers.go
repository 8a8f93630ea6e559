// Package handlers exposes the realized-volatility estimators for
// index-level diagnostics.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/modules/volatility"
	"github.com/aristath/ballast/pkg/formulas"
)

// Defaults carries the configured estimator parameters the API falls
// back to when a request does not override them.
type Defaults struct {
	EWMA        volatility.EWMAParams
	MaxLeverage float64
}

// Handler handles volatility diagnostic HTTP requests
type Handler struct {
	defaults Defaults
	log      zerolog.Logger
}

// NewHandler creates a new volatility handler
func NewHandler(defaults Defaults, log zerolog.Logger) *Handler {
	return &Handler{
		defaults: defaults,
		log:      log.With().Str("handler", "volatility").Logger(),
	}
}

// RealizedRequest carries a portfolio value series and optional
// estimator overrides. A positive target volatility additionally
// produces the lagged leverage factor series.
type RealizedRequest struct {
	Values           []float64 `json:"values"`
	TargetVolatility float64   `json:"target_volatility,omitempty"`
	LambdaShort      float64   `json:"lambda_short,omitempty"`
	LambdaLong       float64   `json:"lambda_long,omitempty"`
	SeedWindow       int       `json:"seed_window,omitempty"`
	MaxLeverage      float64   `json:"max_leverage,omitempty"`
	LagDays          *int      `json:"lag_days,omitempty"`
}

// RealizedResponse is the estimator output for one value series.
type RealizedResponse struct {
	SeedIndex int       `json:"seed_index"`
	Short     []float64 `json:"short"`
	Long      []float64 `json:"long"`
	Realized  []float64 `json:"realized"`
	Leverage  []float64 `json:"leverage,omitempty"`
}

// HandleRealized handles POST /api/volatility/realized
func (h *Handler) HandleRealized(w http.ResponseWriter, r *http.Request) {
	var req RealizedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Values) < 2 {
		http.Error(w, "Need at least 2 values", http.StatusBadRequest)
		return
	}

	params := h.defaults.EWMA
	if req.LambdaShort != 0 {
		params.LambdaShort = req.LambdaShort
	}
	if req.LambdaLong != 0 {
		params.LambdaLong = req.LambdaLong
	}
	if req.SeedWindow != 0 {
		params.SeedWindow = req.SeedWindow
	}

	series, err := volatility.RealizedVolatility(formulas.LogReturns(req.Values), params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	response := RealizedResponse{
		SeedIndex: series.SeedIndex,
		Short:     series.Short,
		Long:      series.Long,
		Realized:  series.Realized,
	}

	if req.TargetVolatility > 0 {
		leverageParams := volatility.DefaultLeverageParams(req.TargetVolatility)
		leverageParams.MaxLeverage = h.defaults.MaxLeverage
		if req.MaxLeverage != 0 {
			leverageParams.MaxLeverage = req.MaxLeverage
		}
		if req.LagDays != nil {
			leverageParams.LagDays = *req.LagDays
		}

		factors, err := volatility.LeverageFactors(series.Realized, leverageParams)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		response.Leverage = factors
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": response,
		"metadata": map[string]interface{}{
			"observations": len(req.Values),
			"timestamp":    time.Now().Format(time.RFC3339),
		},
	})
}

// GARCHRequest carries a portfolio value series and optional recursion
// weights.
type GARCHRequest struct {
	Values []float64 `json:"values"`
	Alpha  float64   `json:"alpha,omitempty"`
	Beta   float64   `json:"beta,omitempty"`
}

// HandleGARCH handles POST /api/volatility/garch
func (h *Handler) HandleGARCH(w http.ResponseWriter, r *http.Request) {
	var req GARCHRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	params := volatility.DefaultGARCHParams()
	if req.Alpha != 0 {
		params.Alpha = req.Alpha
	}
	if req.Beta != 0 {
		params.Beta = req.Beta
	}

	series, err := volatility.GARCHVolatility(req.Values, params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Entry 0 is NaN (no return yet), which JSON cannot carry; report
	// from the seed onward like the realized endpoint does.
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"seed_index": 1,
			"volatility": series[1:],
			"alpha":      params.Alpha,
			"beta":       params.Beta,
		},
		"metadata": map[string]interface{}{
			"observations": len(req.Values),
			"timestamp":    time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
