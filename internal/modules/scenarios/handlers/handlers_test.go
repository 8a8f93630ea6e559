package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ballast/internal/modules/scenarios"
)

type stubHistory struct{}

func (stubHistory) ReturnMatrix(_ context.Context, assetIDs []string, _ time.Time, minLength int) ([][]float64, error) {
	matrix := make([][]float64, len(assetIDs))
	for i := range matrix {
		matrix[i] = make([]float64, minLength)
		for j := range matrix[i] {
			matrix[i][j] = 0.001 * float64(j%5)
		}
	}
	return matrix, nil
}

func setupHandler() *Handler {
	service := scenarios.NewService(stubHistory{}, zerolog.Nop())
	return NewHandler(service, zerolog.Nop())
}

func TestHandleDetect(t *testing.T) {
	handler := setupHandler()

	requestBody := map[string]interface{}{
		"date": "2026-04-07",
		"assets": []map[string]interface{}{
			{"id": "EQ", "class": "equity", "volatility": 0.20},
			{"id": "RT", "class": "rate", "volatility": 0.05},
		},
		"observed_weights": map[string]float64{"EQ": 0.2, "RT": 0.8},
	}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest("POST", "/api/scenarios/detect", bytes.NewReader(bodyBytes))
	w := httptest.NewRecorder()

	handler.HandleDetect(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	data := response["data"].(map[string]interface{})
	scenario := data["scenario"].(map[string]interface{})
	assert.Equal(t, "a", scenario["name"])
}

func TestHandleDetect_InvalidDate(t *testing.T) {
	handler := setupHandler()

	requestBody := map[string]interface{}{
		"date": "04/07/2026",
		"assets": []map[string]interface{}{
			{"id": "EQ", "class": "equity", "volatility": 0.2},
		},
		"observed_weights": map[string]float64{"EQ": 1.0},
	}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest("POST", "/api/scenarios/detect", bytes.NewReader(bodyBytes))
	w := httptest.NewRecorder()

	handler.HandleDetect(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleDetect_AllCash(t *testing.T) {
	handler := setupHandler()

	requestBody := map[string]interface{}{
		"date": "2026-04-07",
		"assets": []map[string]interface{}{
			{"id": "CASH", "class": "cash"},
		},
		"observed_weights": map[string]float64{"CASH": 1.0},
	}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest("POST", "/api/scenarios/detect", bytes.NewReader(bodyBytes))
	w := httptest.NewRecorder()

	handler.HandleDetect(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleListScenarios(t *testing.T) {
	handler := setupHandler()

	req := httptest.NewRequest("GET", "/api/scenarios", nil)
	w := httptest.NewRecorder()

	handler.HandleListScenarios(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	data := response["data"].(map[string]interface{})
	list := data["scenarios"].([]interface{})
	assert.Len(t, list, 4)
}
