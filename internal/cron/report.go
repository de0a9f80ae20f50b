package cron

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"hookwatch/internal/delivery"
)

// ReportJobName is the name of the delivery report job.
const ReportJobName = "delivery-report"

// Reporter logs delivery counters since its previous run.
type Reporter struct {
	stats  *delivery.Stats
	logger zerolog.Logger

	mu   sync.Mutex
	last delivery.Snapshot
}

// NewReporter creates a Reporter over stats.
func NewReporter(stats *delivery.Stats, logger zerolog.Logger) *Reporter {
	return &Reporter{
		stats:  stats,
		logger: logger.With().Str("component", "report").Logger(),
	}
}

// Run logs one report record. Quiet periods are logged at debug level.
func (r *Reporter) Run(_ context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.stats.Snapshot()
	prev := r.last
	r.last = now

	delivered := now.Delivered - prev.Delivered
	failed := now.Failed - prev.Failed

	event := r.logger.Info()
	if delivered == 0 && failed == 0 {
		event = r.logger.Debug()
	}
	event.
		Str("event", "report").
		Int64("delivered", delivered).
		Int64("failed", failed).
		Int64("attempts", now.Attempts-prev.Attempts).
		Int64("in_flight", now.InFlight).
		Int64("delivered_total", now.Delivered).
		Int64("failed_total", now.Failed).
		Msgf("Report: %d sent, %d failed", delivered, failed)
}

// Register adds the reporter to s under schedule.
func (r *Reporter) Register(s *Scheduler, schedule string) error {
	return s.AddJob(ReportJobName, schedule, r.Run)
}
