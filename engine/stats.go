package engine

import (
	"fmt"
	"sync/atomic"
	"time"
)

// QueryStats counts executed statements.
type QueryStats struct {
	total    atomic.Int64
	duration atomic.Int64 // nanoseconds
	slow     atomic.Int64
	errors   atomic.Int64
}

func (s *QueryStats) record(d time.Duration, err error, slow bool) {
	s.total.Add(1)
	s.duration.Add(int64(d))
	if slow {
		s.slow.Add(1)
	}
	if err != nil {
		s.errors.Add(1)
	}
}

// Snapshot returns the current counter values.
func (s *QueryStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Queries:  s.total.Load(),
		Duration: time.Duration(s.duration.Load()),
		Slow:     s.slow.Load(),
		Errors:   s.errors.Load(),
	}
}

// StatsSnapshot is a point-in-time copy of QueryStats.
type StatsSnapshot struct {
	Queries  int64
	Duration time.Duration
	Slow     int64
	Errors   int64
}

// AvgDuration returns the mean statement duration.
func (s StatsSnapshot) AvgDuration() time.Duration {
	if s.Queries == 0 {
		return 0
	}
	return s.Duration / time.Duration(s.Queries)
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf("queries=%d duration=%s avg=%s slow=%d errors=%d",
		s.Queries, s.Duration, s.AvgDuration(), s.Slow, s.Errors)
}
