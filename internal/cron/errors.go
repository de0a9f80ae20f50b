// Package cron runs the periodic maintenance jobs of the watcher.
package cron

import (
	"errors"
	"fmt"
)

// Sentinel errors for cron operations.
var (
	// ErrJobExists indicates a job with the same name already exists.
	ErrJobExists = errors.New("cron: job already exists")

	// ErrJobNotFound indicates the requested job does not exist.
	ErrJobNotFound = errors.New("cron: job not found")

	// ErrSchedulerRunning indicates Start was called twice.
	ErrSchedulerRunning = errors.New("cron: scheduler already running")
)

// InvalidScheduleError indicates an invalid cron schedule expression.
type InvalidScheduleError struct {
	Schedule string
	Message  string
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("cron: invalid schedule '%s': %s", e.Schedule, e.Message)
}

// Is implements errors.Is for InvalidScheduleError.
func (e *InvalidScheduleError) Is(target error) bool {
	_, ok := target.(*InvalidScheduleError)
	return ok
}

// ErrInvalidSchedule is a sentinel for errors.Is matching.
var ErrInvalidSchedule = &InvalidScheduleError{}
