package handlers

import (
	"net/http"

	"hookwatch/internal/delivery"
)

// StatsHandler reports delivery counters.
func StatsHandler(stats *delivery.Stats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if stats == nil {
			SendError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "delivery stats unavailable")
			return
		}
		SendJSON(w, http.StatusOK, stats.Snapshot())
	}
}
