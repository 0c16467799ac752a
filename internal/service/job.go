package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/jobs"
)

// JobService fronts the scheduler for the transport layers, translating
// engine errors into the service error taxonomy.
type JobService struct {
	scheduler *jobs.Scheduler
	logger    *zap.SugaredLogger
}

func NewJobService(scheduler *jobs.Scheduler) *JobService {
	return &JobService{
		scheduler: scheduler,
		logger:    zap.S().Named("job_service"),
	}
}

// SubmitRequest carries a job submission from the transport layer.
type SubmitRequest struct {
	JobType      string         `json:"job_type"`
	InputData    map[string]any `json:"input_data"`
	OutputConfig map[string]any `json:"output_config"`
	Priority     string         `json:"priority"`
}

func (s *JobService) SubmitJob(ctx context.Context, req SubmitRequest) (uuid.UUID, error) {
	if req.JobType == "" {
		return uuid.Nil, NewErrInvalidRequest("job_type is required")
	}
	priority, err := jobs.ParsePriority(req.Priority)
	if err != nil {
		return uuid.Nil, NewErrInvalidRequest(err.Error())
	}

	id, err := s.scheduler.Submit(ctx, req.JobType, req.InputData, req.OutputConfig, priority)
	if err != nil {
		switch {
		case errors.Is(err, jobs.ErrUnknownJobType):
			return uuid.Nil, NewErrUnknownJobType(req.JobType)
		case errors.Is(err, jobs.ErrQueueFull):
			return uuid.Nil, NewErrQueueFull()
		default:
			s.logger.Errorw("job submission failed", "job_type", req.JobType, "error", err)
			return uuid.Nil, err
		}
	}

	s.logger.Infow("job submitted", "job_id", id, "job_type", req.JobType, "priority", priority)
	return id, nil
}

func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (jobs.Job, error) {
	job, err := s.scheduler.Get(id)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			return jobs.Job{}, NewErrJobNotFound(id)
		}
		return jobs.Job{}, err
	}
	return job, nil
}

func (s *JobService) ListJobs(ctx context.Context, filter jobs.ListFilter) []jobs.Job {
	return s.scheduler.List(filter)
}

// CancelJob requests cancellation and reports whether the request took
// effect. Unknown and already-terminal jobs both report false.
func (s *JobService) CancelJob(ctx context.Context, id uuid.UUID) bool {
	cancelled := s.scheduler.Cancel(id)
	if cancelled {
		s.logger.Infow("job cancellation requested", "job_id", id)
	}
	return cancelled
}

func (s *JobService) GetStats(ctx context.Context) jobs.StatsSnapshot {
	return s.scheduler.Stats()
}
