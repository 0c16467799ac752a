package jobs

import (
	"sync"
	"time"
)

// Stats maintains process-wide aggregate counters. It is a pure observer:
// the worker pool reports terminal transitions, nothing here feeds back
// into scheduling decisions.
type Stats struct {
	mu              sync.Mutex
	startTime       time.Time
	submitted       int64
	completed       int64
	failed          int64
	cancelled       int64
	totalProcessing time.Duration
	timedJobs       int64
}

func NewStats() *Stats {
	return &Stats{startTime: time.Now().UTC()}
}

func (s *Stats) RecordSubmitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted++
}

func (s *Stats) RecordCompleted(processing time.Duration) {
	s.record(&s.completed, processing)
}

func (s *Stats) RecordFailed(processing time.Duration) {
	s.record(&s.failed, processing)
}

func (s *Stats) RecordCancelled(processing time.Duration) {
	s.record(&s.cancelled, processing)
}

func (s *Stats) record(counter *int64, processing time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*counter++
	if processing > 0 {
		s.totalProcessing += processing
		s.timedJobs++
	}
}

// StatsState is the persistable part of the aggregate counters.
type StatsState struct {
	StartTime       time.Time     `json:"start_time"`
	Submitted       int64         `json:"submitted"`
	Completed       int64         `json:"completed"`
	Failed          int64         `json:"failed"`
	Cancelled       int64         `json:"cancelled"`
	TotalProcessing time.Duration `json:"total_processing_ns"`
	TimedJobs       int64         `json:"timed_jobs"`
}

// Export copies the counters for the persistence manager.
func (s *Stats) Export() StatsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsState{
		StartTime:       s.startTime,
		Submitted:       s.submitted,
		Completed:       s.completed,
		Failed:          s.failed,
		Cancelled:       s.cancelled,
		TotalProcessing: s.totalProcessing,
		TimedJobs:       s.timedJobs,
	}
}

// Restore reloads the counters from a snapshot. The start time is reset to
// the current process start: uptime and throughput are per-process values.
func (s *Stats) Restore(state StatsState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = state.Submitted
	s.completed = state.Completed
	s.failed = state.Failed
	s.cancelled = state.Cancelled
	s.totalProcessing = state.TotalProcessing
	s.timedJobs = state.TimedJobs
}

// StatsSnapshot is the caller-facing aggregate view.
type StatsSnapshot struct {
	TotalJobs         int64   `json:"total_jobs"`
	Completed         int64   `json:"completed_jobs"`
	Failed            int64   `json:"failed_jobs"`
	Cancelled         int64   `json:"cancelled_jobs"`
	Processing        int     `json:"processing_jobs"`
	Queued            int     `json:"queued_jobs"`
	AvgProcessingSecs float64 `json:"avg_processing_time_seconds"`
	JobsPerMinute     float64 `json:"jobs_per_minute"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// Snapshot derives the externally visible aggregates. The in-flight and
// queued gauges are supplied by the caller, which reads them from the
// registry and queue.
func (s *Stats) Snapshot(processing, queued int) StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	uptime := time.Since(s.startTime)
	finished := s.completed + s.failed + s.cancelled

	snap := StatsSnapshot{
		TotalJobs:     s.submitted,
		Completed:     s.completed,
		Failed:        s.failed,
		Cancelled:     s.cancelled,
		Processing:    processing,
		Queued:        queued,
		UptimeSeconds: uptime.Seconds(),
	}
	if s.timedJobs > 0 {
		snap.AvgProcessingSecs = s.totalProcessing.Seconds() / float64(s.timedJobs)
	}
	if minutes := uptime.Minutes(); minutes > 0 {
		snap.JobsPerMinute = float64(finished) / minutes
	}
	return snap
}
