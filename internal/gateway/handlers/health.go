package handlers

import (
	"net/http"
	"time"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   int64  `json:"uptime"`
	Channels int    `json:"channels"`
}

// ReadyFunc reports whether the chat session is connected.
type ReadyFunc func() bool

// HealthHandler returns a health check handler. It answers 503 until ready
// reports true.
func HealthHandler(version string, startedAt time.Time, channels int, ready ReadyFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(0)
		if !startedAt.IsZero() {
			uptime = int64(time.Since(startedAt).Seconds())
		}

		resp := HealthResponse{
			Status:   "ok",
			Version:  version,
			Uptime:   uptime,
			Channels: channels,
		}
		status := http.StatusOK
		if ready != nil && !ready() {
			resp.Status = "connecting"
			status = http.StatusServiceUnavailable
		}
		SendJSON(w, status, resp)
	}
}
