package delivery

import (
	"sync/atomic"
	"time"
)

// Stats counts deliveries since process start. All fields are updated
// atomically; the dispatcher is the only writer.
type Stats struct {
	dispatched  atomic.Int64
	delivered   atomic.Int64
	failed      atomic.Int64
	attempts    atomic.Int64
	inFlight    atomic.Int64
	lastSuccess atomic.Int64 // unix nanos
	lastFailure atomic.Int64 // unix nanos
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Dispatched  int64      `json:"dispatched"`
	Delivered   int64      `json:"delivered"`
	Failed      int64      `json:"failed"`
	Attempts    int64      `json:"attempts"`
	InFlight    int64      `json:"in_flight"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastFailure *time.Time `json:"last_failure,omitempty"`
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Dispatched:  s.dispatched.Load(),
		Delivered:   s.delivered.Load(),
		Failed:      s.failed.Load(),
		Attempts:    s.attempts.Load(),
		InFlight:    s.inFlight.Load(),
		LastSuccess: loadTime(&s.lastSuccess),
		LastFailure: loadTime(&s.lastFailure),
	}
}

func loadTime(v *atomic.Int64) *time.Time {
	n := v.Load()
	if n == 0 {
		return nil
	}
	t := time.Unix(0, n)
	return &t
}

func (s *Stats) recordResult(r Result) {
	s.attempts.Add(int64(r.Attempts))
	now := time.Now().UnixNano()
	if r.Delivered {
		s.delivered.Add(1)
		s.lastSuccess.Store(now)
		return
	}
	s.failed.Add(1)
	s.lastFailure.Store(now)
}
