package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ilyi1116/auto-video-generation-fold6-sub001/pkg/metrics"
)

// workerLoop is run by each worker goroutine. Per-job failures never
// propagate out of dispatch, so a worker only exits when the queue closes;
// the pool never silently shrinks.
func (s *Scheduler) workerLoop(n int) {
	defer s.wg.Done()
	logger := zap.S().Named("worker").With("worker", n)

	for {
		id, err := s.queue.Dequeue()
		if err != nil {
			if !errors.Is(err, ErrQueueClosed) {
				logger.Errorw("dequeue failed", "error", err)
			}
			return
		}
		metrics.UpdateJobsQueuedMetric(s.queue.Len())
		s.dispatch(logger, id)
	}
}

func (s *Scheduler) dispatch(logger *zap.SugaredLogger, id uuid.UUID) {
	job, ok := s.registry.Get(id)
	if !ok {
		return
	}
	// Cheap pre-check: a job cancelled while still queued is skipped
	// without ever invoking its handler.
	if job.Status == StatusCancelled {
		logger.Debugw("skipping cancelled job", "job_id", id)
		return
	}

	handler, ok := s.handlers.Get(job.Type)
	if !ok {
		// Possible after a restart when a snapshot carries a type no
		// longer registered.
		_ = s.finalize(id, StatusFailed, nil, fmt.Sprintf("no handler registered for job type %q", job.Type))
		return
	}

	hctx, cancel := context.WithTimeout(context.Background(), s.opts.JobTimeout)
	handle := &cancelHandle{cancel: cancel}
	s.handles.track(id, handle)

	if err := s.registry.MarkProcessing(id); err != nil {
		// Cancelled between dequeue and ownership.
		s.handles.untrack(id)
		cancel()
		return
	}
	metrics.UpdateJobsProcessingMetric(s.registry.CountByStatus(StatusProcessing))
	s.notify(hctx, EventStarted, id)
	logger.Infow("job started", "job_id", id, "job_type", job.Type, "attempt", job.RetryCount+1)

	hctx = WithProgress(hctx, func(p float64) {
		_ = s.registry.SetProgress(id, p)
	})

	started := time.Now()
	result, err := s.invoke(handler, hctx, job)
	elapsed := time.Since(started)

	// Read before cancel() below turns the context error into Canceled.
	timedOut := errors.Is(hctx.Err(), context.DeadlineExceeded)

	s.handles.untrack(id)
	cancel()

	switch {
	case handle.requested.Load():
		logger.Infow("job cancelled", "job_id", id)
		_ = s.finalize(id, StatusCancelled, nil, "")
	case timedOut:
		// The deadline governs the outcome even when the handler ignored
		// ctx and returned a result: an overrun is a failure and goes
		// through the retry policy.
		err = fmt.Errorf("handler exceeded deadline of %s: %w", s.opts.JobTimeout, context.DeadlineExceeded)
		s.retryOrFail(logger, id, job, err)
	case err != nil:
		s.retryOrFail(logger, id, job, err)
	default:
		logger.Infow("job completed", "job_id", id, "duration", elapsed)
		metrics.ObserveJobProcessingDuration(job.Type, elapsed.Seconds())
		_ = s.finalize(id, StatusCompleted, result, "")
	}
}

// invoke runs the handler with panic recovery: a panicking handler
// surfaces as a handler error and goes through the retry policy like any
// other failure.
func (s *Scheduler) invoke(handler Handler, ctx context.Context, job Job) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Named("worker").Errorw("job handler panicked",
				"job_id", job.ID,
				"job_type", job.Type,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("panic in %s handler: %v", job.Type, r)
		}
	}()
	return handler(ctx, job.InputData, job.OutputConfig)
}

// retryOrFail applies the retry policy after a handler error or timeout.
// The decision uses the retry count of the attempt that just failed.
func (s *Scheduler) retryOrFail(logger *zap.SugaredLogger, id uuid.UUID, job Job, cause error) {
	if job.RetryCount >= job.MaxRetries {
		logger.Warnw("job failed permanently", "job_id", id, "retries", job.RetryCount, "error", cause)
		_ = s.finalize(id, StatusFailed, nil, cause.Error())
		return
	}

	if err := s.registry.MarkRetry(id, cause.Error()); err != nil {
		// The job was cancelled while the outcome was being applied.
		_ = s.finalize(id, StatusCancelled, nil, "")
		return
	}
	metrics.UpdateJobsProcessingMetric(s.registry.CountByStatus(StatusProcessing))
	metrics.IncreaseJobRetriesMetric(job.Type)
	s.notify(context.Background(), EventRetried, id)

	delay := s.opts.Backoff.Delay(job.RetryCount + 1)
	logger.Infow("job scheduled for retry",
		"job_id", id,
		"attempt", job.RetryCount+1,
		"max_retries", job.MaxRetries,
		"delay", delay,
		"error", cause,
	)

	// The retry-delay wait is itself cancellable: an explicit cancel
	// request during the wait wins over the pending retry.
	wctx, wcancel := context.WithCancel(context.Background())
	handle := &cancelHandle{cancel: wcancel}
	s.handles.track(id, handle)

	select {
	case <-time.After(delay):
	case <-wctx.Done():
	case <-s.stopCh:
	}

	s.handles.untrack(id)
	wcancel()

	if handle.requested.Load() {
		logger.Infow("job cancelled while awaiting retry", "job_id", id)
		_ = s.finalize(id, StatusCancelled, nil, "")
		return
	}

	// An untracked cancel may have finalized the job during the wait.
	if current, ok := s.registry.Get(id); !ok || current.Status != StatusPending {
		return
	}

	err := s.queue.Enqueue(id, job.Priority, func() {
		// Fails only when a cancel landed in the meantime; the dispatch
		// loop then skips the job.
		_ = s.registry.MarkQueued(id)
	})
	if err != nil {
		// Queue closed during shutdown: the job stays Pending and is
		// re-admitted from the snapshot on the next start.
		logger.Warnw("failed to re-enqueue job for retry", "job_id", id, "error", err)
		return
	}
	metrics.UpdateJobsQueuedMetric(s.queue.Len())
}

// finalize performs the terminal transition and feeds the stats aggregator.
func (s *Scheduler) finalize(id uuid.UUID, status JobStatus, result map[string]any, errorMessage string) error {
	before, _ := s.registry.Get(id)

	if err := s.registry.MarkTerminal(id, status, result, errorMessage); err != nil {
		return err
	}

	var processing time.Duration
	if before.StartedAt != nil {
		processing = time.Since(*before.StartedAt)
	}

	switch status {
	case StatusCompleted:
		s.stats.RecordCompleted(processing)
	case StatusFailed:
		s.stats.RecordFailed(processing)
	case StatusCancelled:
		s.stats.RecordCancelled(processing)
	}

	metrics.IncreaseJobsTotalMetric(before.Type, string(status))
	metrics.UpdateJobsProcessingMetric(s.registry.CountByStatus(StatusProcessing))
	s.notify(context.Background(), eventForStatus(status), id)
	return nil
}

func eventForStatus(status JobStatus) string {
	switch status {
	case StatusCompleted:
		return EventCompleted
	case StatusFailed:
		return EventFailed
	default:
		return EventCancelled
	}
}
