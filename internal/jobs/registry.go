package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// legalTransitions is the full set of edges the job state machine allows.
// Every status mutation goes through Registry.transition, so a job can
// never be observed outside these edges.
var legalTransitions = map[JobStatus][]JobStatus{
	StatusPending:    {StatusQueued, StatusCancelled},
	StatusQueued:     {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled, StatusPending},
}

func transitionAllowed(from, to JobStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Registry owns every job record and is the single source of truth for
// status. All mutations are serialized behind one mutex so a transition and
// its associated field updates are atomic with respect to readers.
type Registry struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[uuid.UUID]*Job)}
}

// Add inserts a freshly created job in Pending state.
func (r *Registry) Add(job *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
}

// Get returns a copy of the job, so callers never share mutable state with
// the owning worker.
func (r *Registry) Get(id uuid.UUID) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return job.clone(), true
}

// ListFilter narrows the result of List. Zero values match everything.
type ListFilter struct {
	Status JobStatus
	Type   string
}

// List returns copies of all jobs matching the filter.
func (r *Registry) List(filter ListFilter) []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.Type != "" && job.Type != filter.Type {
			continue
		}
		out = append(out, job.clone())
	}
	return out
}

// CountByStatus returns how many jobs currently hold the given status.
func (r *Registry) CountByStatus(status JobStatus) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, job := range r.jobs {
		if job.Status == status {
			count++
		}
	}
	return count
}

func (r *Registry) transition(id uuid.UUID, to JobStatus, mutate func(*Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if !transitionAllowed(job.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, to)
	}

	job.Status = to
	if mutate != nil {
		mutate(job)
	}
	return nil
}

// MarkQueued moves a pending job into the queue-visible state.
func (r *Registry) MarkQueued(id uuid.UUID) error {
	return r.transition(id, StatusQueued, nil)
}

// MarkProcessing assigns the job to a worker, stamping StartedAt on the
// first attempt only.
func (r *Registry) MarkProcessing(id uuid.UUID) error {
	return r.transition(id, StatusProcessing, func(job *Job) {
		if job.StartedAt == nil {
			now := time.Now().UTC()
			job.StartedAt = &now
		}
	})
}

// MarkRetry returns a failed attempt to Pending and charges one retry.
// The error message of the failed attempt is kept so status reads during
// the retry window expose the latest failure.
func (r *Registry) MarkRetry(id uuid.UUID, errorMessage string) error {
	return r.transition(id, StatusPending, func(job *Job) {
		job.RetryCount++
		job.Progress = 0
		job.ErrorMessage = errorMessage
	})
}

// MarkTerminal finalizes a job. CompletedAt is stamped exactly once, the
// result is kept only for completed jobs and the error message only for
// failed ones.
func (r *Registry) MarkTerminal(id uuid.UUID, status JobStatus, result map[string]any, errorMessage string) error {
	if !status.Terminal() {
		return fmt.Errorf("%w: %s is not terminal", ErrInvalidTransition, status)
	}
	return r.transition(id, status, func(job *Job) {
		now := time.Now().UTC()
		job.CompletedAt = &now
		switch status {
		case StatusCompleted:
			job.Result = result
			job.ErrorMessage = ""
			job.Progress = 1
		case StatusFailed:
			job.ErrorMessage = errorMessage
		case StatusCancelled:
			job.ErrorMessage = ""
		}
	})
}

// SetProgress records handler progress. Only legal while the job is owned
// by a worker.
func (r *Registry) SetProgress(id uuid.UUID, progress float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if job.Status != StatusProcessing {
		return ErrNotProcessing
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	job.Progress = progress
	return nil
}

// Sweep removes terminal jobs that finished more than maxAge ago and
// returns how many were dropped. Non-terminal jobs are never removed.
func (r *Registry) Sweep(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, job := range r.jobs {
		if job.Status.Terminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed
}

// SnapshotJobs copies every job under the registry lock, giving the
// persistence manager a consistent view.
func (r *Registry) SnapshotJobs() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job.clone())
	}
	return out
}

// Restore re-admits a job loaded from a snapshot without transition checks.
func (r *Registry) Restore(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	restored := job.clone()
	r.jobs[job.ID] = &restored
}
