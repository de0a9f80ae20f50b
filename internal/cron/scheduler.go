package cron

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// parser accepts standard five-field specs, an optional leading seconds
// field, and descriptors such as "@every 1h".
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// JobFunc is the body of a scheduled job.
type JobFunc func(ctx context.Context)

// Scheduler runs named jobs with robfig/cron.
type Scheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID // job name -> entry ID
	logger  zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.RWMutex
	running bool
}

// SchedulerConfig configures the scheduler.
type SchedulerConfig struct {
	// Location for time zone handling
	Location *time.Location
}

// NewScheduler creates a new scheduler.
func NewScheduler(logger zerolog.Logger, config *SchedulerConfig) *Scheduler {
	if config == nil {
		config = &SchedulerConfig{}
	}
	if config.Location == nil {
		config.Location = time.Local
	}

	log := logger.With().Str("component", "cron").Logger()
	adapter := cronLogger{log: log}

	// Overlapping runs are skipped and panics are logged.
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(config.Location),
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    c,
		entries: make(map[string]cron.EntryID),
		logger:  log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// ValidateSchedule checks a schedule expression.
func ValidateSchedule(schedule string) error {
	if _, err := parser.Parse(schedule); err != nil {
		return &InvalidScheduleError{Schedule: schedule, Message: err.Error()}
	}
	return nil
}

// AddJob registers fn under name.
func (s *Scheduler) AddJob(name, schedule string, fn JobFunc) error {
	if err := ValidateSchedule(schedule); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("%w: %s", ErrJobExists, name)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		start := time.Now()
		fn(s.ctx)
		s.logger.Debug().Str("job_name", name).Dur("duration", time.Since(start)).Msg("job finished")
	})
	if err != nil {
		return &InvalidScheduleError{Schedule: schedule, Message: err.Error()}
	}
	s.entries[name] = entryID
	s.logger.Debug().Str("job_name", name).Str("schedule", schedule).Msg("job registered")
	return nil
}

// RemoveJob unregisters a job.
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	s.cron.Remove(id)
	delete(s.entries, name)
	return nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerRunning
	}
	s.cron.Start()
	s.running = true
	s.logger.Debug().Int("registered_jobs", len(s.entries)).Msg("scheduler started")
	return nil
}

// Stop stops the scheduler. The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	s.cancel()
	s.running = false
	return s.cron.Stop()
}

// IsRunning reports whether the scheduler is started.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Jobs returns the registered job names in sorted order.
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NextRun returns the next scheduled time of a job.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.RLock()
	id, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}, false
	}

	entry := s.cron.Entry(id)
	if !entry.Valid() || entry.Next.IsZero() {
		return time.Time{}, false
	}
	return entry.Next, true
}
