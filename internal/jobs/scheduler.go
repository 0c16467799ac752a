package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	"github.com/ilyi1116/auto-video-generation-fold6-sub001/pkg/metrics"
)

// Event kinds reported to the Notifier on every job transition.
const (
	EventSubmitted = "submitted"
	EventStarted   = "started"
	EventCompleted = "completed"
	EventFailed    = "failed"
	EventCancelled = "cancelled"
	EventRetried   = "retried"
)

// Notifier receives job transitions asynchronously. Implementations must
// not block the calling worker.
type Notifier interface {
	Notify(ctx context.Context, event string, job Job)
}

// Snapshot is the durable, point-in-time serialization of the registry and
// the aggregate counters.
type Snapshot struct {
	SavedAt time.Time  `json:"saved_at"`
	Jobs    []Job      `json:"jobs"`
	Stats   StatsState `json:"stats"`
}

// SnapshotStore persists and restores scheduler snapshots. Load returns
// (nil, nil) when no snapshot exists yet.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot *Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
}

// Options configures a Scheduler instance.
type Options struct {
	Workers          int
	QueueSize        int
	JobTimeout       time.Duration
	MaxRetries       int
	Backoff          BackoffStrategy
	BlockOnFullQueue bool
	SnapshotInterval time.Duration
	RetentionAge     time.Duration
}

// cancelHandle is the cooperative cancellation token for one in-flight job,
// covering both the handler invocation and the retry-delay wait.
type cancelHandle struct {
	cancel    context.CancelFunc
	requested atomic.Bool
}

type handleSet struct {
	mu sync.Mutex
	m  map[uuid.UUID]*cancelHandle
}

func newHandleSet() *handleSet {
	return &handleSet{m: make(map[uuid.UUID]*cancelHandle)}
}

func (h *handleSet) track(id uuid.UUID, handle *cancelHandle) {
	h.mu.Lock()
	h.m[id] = handle
	h.mu.Unlock()
}

func (h *handleSet) untrack(id uuid.UUID) {
	h.mu.Lock()
	delete(h.m, id)
	h.mu.Unlock()
}

// signal requests cancellation of the tracked handle, if any, and reports
// whether one was found.
func (h *handleSet) signal(id uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	handle, ok := h.m[id]
	if !ok {
		return false
	}
	handle.requested.Store(true)
	handle.cancel()
	return true
}

func (h *handleSet) cancelAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, handle := range h.m {
		handle.cancel()
	}
}

// Scheduler is the asynchronous job execution engine: it owns the registry,
// the bounded submission queue, the worker pool and the persistence loop.
// Instances are explicitly constructed and carry a Start/Stop lifecycle,
// there is no ambient global state.
type Scheduler struct {
	opts     Options
	registry *Registry
	queue    *Queue
	handlers *HandlerRegistry
	stats    *Stats
	handles  *handleSet
	store    SnapshotStore
	notifier Notifier

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New assembles a scheduler. store and notifier may be nil, disabling
// persistence and event emission respectively.
func New(opts Options, handlers *HandlerRegistry, store SnapshotStore, notifier Notifier) *Scheduler {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	if opts.Backoff == nil {
		opts.Backoff = ConstantBackoff{Interval: 5 * time.Second}
	}
	return &Scheduler{
		opts:     opts,
		registry: NewRegistry(),
		queue:    NewQueue(opts.QueueSize),
		handlers: handlers,
		stats:    NewStats(),
		handles:  newHandleSet(),
		store:    store,
		notifier: notifier,
	}
}

// Start restores the last snapshot and launches the worker pool and the
// persistence loop. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})

	pending := s.restore(ctx)

	zap.S().Named("scheduler").Infow("starting worker pool",
		"workers", s.opts.Workers,
		"queue_size", s.opts.QueueSize,
		"job_timeout", s.opts.JobTimeout,
	)

	for i := 0; i < s.opts.Workers; i++ {
		s.wg.Add(1)
		go s.workerLoop(i)
	}

	if s.store != nil && s.opts.SnapshotInterval > 0 {
		s.wg.Add(1)
		go s.snapshotLoop()
	}

	// Re-admission happens after the workers are up and off the Start path:
	// a restored backlog can exceed the queue capacity, so feeding it in has
	// to overlap with the workers draining it.
	if len(pending) > 0 {
		s.wg.Add(1)
		go s.admitRestored(pending)
	}

	return nil
}

// Stop closes the queue, waits for in-flight jobs to finish and writes a
// final snapshot. When the context expires first, active handles are
// cancelled so cooperative handlers unwind.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	zap.S().Named("scheduler").Info("stopping worker pool")

	close(s.stopCh)
	s.queue.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zap.S().Named("scheduler").Info("worker pool stopped gracefully")
	case <-ctx.Done():
		zap.S().Named("scheduler").Warn("shutdown timed out, cancelling active jobs")
		s.handles.cancelAll()
		<-done
	}

	s.saveSnapshot(context.Background())
	return nil
}

// Submit validates the job type, creates the job record and pushes it onto
// the submission queue.
func (s *Scheduler) Submit(ctx context.Context, jobType string, input, output map[string]any, priority Priority) (uuid.UUID, error) {
	if _, ok := s.handlers.Get(jobType); !ok {
		return uuid.Nil, ErrUnknownJobType
	}

	job := &Job{
		ID:           uuid.New(),
		Type:         jobType,
		InputData:    input,
		OutputConfig: output,
		Priority:     priority,
		Status:       StatusPending,
		CreatedAt:    time.Now().UTC(),
		MaxRetries:   s.opts.MaxRetries,
	}

	// The job enters the registry under the queue lock, already Queued, so
	// a rejected submission is never observable and a worker can never
	// dequeue an id the registry does not know yet.
	admit := func() {
		s.registry.Add(job)
		if err := s.registry.MarkQueued(job.ID); err != nil {
			zap.S().Named("scheduler").Errorw("failed to mark submitted job queued", "job_id", job.ID, "error", err)
		}
	}

	var err error
	if s.opts.BlockOnFullQueue {
		err = s.queue.Enqueue(job.ID, job.Priority, admit)
	} else {
		err = s.queue.TryEnqueue(job.ID, job.Priority, admit)
	}
	if err != nil {
		return uuid.Nil, err
	}

	s.stats.RecordSubmitted()
	metrics.UpdateJobsQueuedMetric(s.queue.Len())
	s.notify(ctx, EventSubmitted, job.ID)

	return job.ID, nil
}

// Get returns the best-known state of a job.
func (s *Scheduler) Get(id uuid.UUID) (Job, error) {
	job, ok := s.registry.Get(id)
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return job, nil
}

// List returns all jobs matching the filter.
func (s *Scheduler) List(filter ListFilter) []Job {
	return s.registry.List(filter)
}

// Cancel requests cancellation of a job. It returns false when the job is
// unknown or already terminal. Queued jobs are finalized immediately and
// skipped by the dispatch loop; in-flight jobs are signalled through their
// cancellation token and finalized by the owning worker once the handler
// returns.
func (s *Scheduler) Cancel(id uuid.UUID) bool {
	job, ok := s.registry.Get(id)
	if !ok || job.Status.Terminal() {
		return false
	}

	if s.handles.signal(id) {
		zap.S().Named("scheduler").Infow("cancellation signalled to running job", "job_id", id)
		return true
	}

	// Not in flight: Pending or Queued, finalize directly.
	if err := s.finalize(id, StatusCancelled, nil, ""); err != nil {
		// Lost the race against a worker picking the job up; the worker
		// observes the signal-free cancel through the status check instead.
		return s.handles.signal(id)
	}
	return true
}

// Stats returns the aggregate counters together with the live in-flight
// and queued gauges.
func (s *Scheduler) Stats() StatsSnapshot {
	return s.stats.Snapshot(s.registry.CountByStatus(StatusProcessing), s.queue.Len())
}

func (s *Scheduler) notify(ctx context.Context, event string, id uuid.UUID) {
	if s.notifier == nil {
		return
	}
	if job, ok := s.registry.Get(id); ok {
		s.notifier.Notify(ctx, event, job)
	}
}

type restoredJob struct {
	id       uuid.UUID
	priority Priority
}

// restore loads the last snapshot and re-admits non-terminal jobs as
// Pending, since in-flight handler execution does not survive a restart.
// It returns the jobs awaiting re-admission; they are fed into the queue
// later, once workers exist to drain it.
func (s *Scheduler) restore(ctx context.Context) []restoredJob {
	if s.store == nil {
		return nil
	}
	logger := zap.S().Named("scheduler")

	snap, err := s.store.Load(ctx)
	if err != nil {
		logger.Warnw("failed to load snapshot, starting empty", "error", err)
		return nil
	}
	if snap == nil {
		return nil
	}

	var pending []restoredJob
	for _, job := range snap.Jobs {
		if job.Status.Terminal() {
			s.registry.Restore(job)
			continue
		}
		job.Status = StatusPending
		job.StartedAt = nil
		job.Progress = 0
		s.registry.Restore(job)
		pending = append(pending, restoredJob{id: job.ID, priority: job.Priority})
	}
	s.stats.Restore(snap.Stats)

	logger.Infow("snapshot restored", "jobs", len(snap.Jobs), "pending", len(pending), "saved_at", snap.SavedAt)
	return pending
}

// admitRestored feeds the restored backlog into the queue. The backlog can
// be larger than the queue capacity, so admission blocks on free slots and
// relies on the running workers to drain it. Jobs left unadmitted at
// shutdown stay Pending and come back through the next snapshot.
func (s *Scheduler) admitRestored(pending []restoredJob) {
	defer s.wg.Done()
	logger := zap.S().Named("scheduler")

	requeued := 0
	for _, job := range pending {
		id := job.id
		err := s.queue.Enqueue(id, job.priority, func() {
			// Fails when the job was cancelled while it waited; the
			// dispatch loop then skips it.
			_ = s.registry.MarkQueued(id)
		})
		if err != nil {
			logger.Warnw("stopped re-admitting restored jobs", "job_id", id, "remaining", len(pending)-requeued, "error", err)
			return
		}
		requeued++
		metrics.UpdateJobsQueuedMetric(s.queue.Len())
	}
	logger.Infow("restored jobs re-admitted", "count", requeued)
}

func (s *Scheduler) snapshotLoop() {
	defer s.wg.Done()

	ticker := jitterbug.New(s.opts.SnapshotInterval, &jitterbug.Norm{Stdev: 100 * time.Millisecond, Mean: 0})
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if s.opts.RetentionAge > 0 {
				if removed := s.registry.Sweep(s.opts.RetentionAge); removed > 0 {
					zap.S().Named("scheduler").Infow("retention sweep removed terminal jobs", "count", removed)
				}
			}
			s.saveSnapshot(context.Background())
		}
	}
}

// saveSnapshot writes the registry and counters to durable storage.
// Persistence failures are logged and otherwise ignored: the in-memory
// registry stays authoritative and processing continues.
func (s *Scheduler) saveSnapshot(ctx context.Context) {
	if s.store == nil {
		return
	}

	snap := &Snapshot{
		SavedAt: time.Now().UTC(),
		Jobs:    s.registry.SnapshotJobs(),
		Stats:   s.stats.Export(),
	}
	if err := s.store.Save(ctx, snap); err != nil {
		zap.S().Named("scheduler").Errorw("failed to persist snapshot", "error", err)
	}
}
