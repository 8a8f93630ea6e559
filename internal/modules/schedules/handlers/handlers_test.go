package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postValidate(t *testing.T, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()

	handler := NewHandler(zerolog.Nop())

	bodyBytes, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/schedules/validate", bytes.NewReader(bodyBytes))
	w := httptest.NewRecorder()

	handler.HandleValidate(w, req)
	return w
}

func TestHandleValidate_Valid(t *testing.T) {
	w := postValidate(t, map[string]interface{}{
		"build_date": "2026-01-01",
		"conversion_intervals": []map[string]string{
			{"start": "2026-01-01", "end": "2026-12-31"},
		},
		"call_intervals": []map[string]string{
			{"start": "2026-03-01", "end": "2026-06-30"},
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	data := response["data"].(map[string]interface{})
	assert.Equal(t, true, data["valid"])
}

func TestHandleValidate_ReportsGaps(t *testing.T) {
	w := postValidate(t, map[string]interface{}{
		"build_date": "2026-01-01",
		"conversion_intervals": []map[string]string{
			{"start": "2026-01-01", "end": "2026-03-31"},
		},
		"call_intervals": []map[string]string{
			{"start": "2026-02-01", "end": "2026-05-31"},
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	data := response["data"].(map[string]interface{})
	assert.Equal(t, false, data["valid"])

	violations := data["violations"].([]interface{})
	require.Len(t, violations, 1)
	gaps := violations[0].(map[string]interface{})["gaps"].([]interface{})
	require.Len(t, gaps, 1)
	gap := gaps[0].(map[string]interface{})
	assert.Equal(t, "2026-03-31", gap["start"])
	assert.Equal(t, "2026-05-31", gap["end"])
}

func TestHandleValidate_BadBuildDate(t *testing.T) {
	w := postValidate(t, map[string]interface{}{
		"build_date": "January 1st",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleValidate_InvertedInterval(t *testing.T) {
	w := postValidate(t, map[string]interface{}{
		"build_date": "2026-01-01",
		"conversion_intervals": []map[string]string{
			{"start": "2026-12-31", "end": "2026-01-01"},
		},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
