package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookwatch/internal/delivery"
)

func TestStatsHandler(t *testing.T) {
	var stats delivery.Stats

	w := httptest.NewRecorder()
	StatsHandler(&stats).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var snap delivery.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, delivery.Snapshot{}, snap)
}

func TestStatsHandler_Unavailable(t *testing.T) {
	w := httptest.NewRecorder()
	StatsHandler(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
