package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthHandler(t *testing.T) {
	handler := HealthHandler("v1.0.0", time.Now().Add(-time.Minute), 3, func() bool { return true })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("status = %s, want ok", resp.Status)
	}
	if resp.Version != "v1.0.0" {
		t.Errorf("version = %s, want v1.0.0", resp.Version)
	}
	if resp.Uptime < 59 {
		t.Errorf("uptime = %d, want >= 59", resp.Uptime)
	}
	if resp.Channels != 3 {
		t.Errorf("channels = %d, want 3", resp.Channels)
	}
}

func TestHealthHandler_NotReady(t *testing.T) {
	handler := HealthHandler("dev", time.Time{}, 0, func() bool { return false })

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if resp.Status != "connecting" {
		t.Errorf("status = %s, want connecting", resp.Status)
	}
	if resp.Uptime != 0 {
		t.Errorf("uptime = %d, want 0", resp.Uptime)
	}
}
