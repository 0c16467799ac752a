package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/jobs"
)

func newTestService(t *testing.T, handlers *jobs.HandlerRegistry) *JobService {
	t.Helper()
	scheduler := jobs.New(jobs.Options{
		Workers:    1,
		QueueSize:  4,
		JobTimeout: time.Second,
		Backoff:    jobs.ConstantBackoff{Interval: 10 * time.Millisecond},
	}, handlers, nil, nil)
	require.NoError(t, scheduler.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = scheduler.Stop(ctx)
	})
	return NewJobService(scheduler)
}

func TestSubmitJobValidation(t *testing.T) {
	handlers := jobs.NewHandlerRegistry()
	require.NoError(t, handlers.Register("render", func(ctx context.Context, input, output map[string]any) (map[string]any, error) {
		return nil, nil
	}))
	svc := newTestService(t, handlers)

	tests := []struct {
		name    string
		req     SubmitRequest
		wantErr any
	}{
		{
			name:    "missing job type",
			req:     SubmitRequest{Priority: "normal"},
			wantErr: &ErrInvalidRequest{},
		},
		{
			name:    "bad priority",
			req:     SubmitRequest{JobType: "render", Priority: "asap"},
			wantErr: &ErrInvalidRequest{},
		},
		{
			name:    "unregistered job type",
			req:     SubmitRequest{JobType: "transcode", Priority: "high"},
			wantErr: &ErrUnknownJobType{},
		},
		{
			name: "valid",
			req:  SubmitRequest{JobType: "render", Priority: "urgent"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := svc.SubmitJob(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.IsType(t, tt.wantErr, err)
				assert.Equal(t, uuid.Nil, id)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, id)
		})
	}
}

func TestSubmitJobDefaultsPriority(t *testing.T) {
	handlers := jobs.NewHandlerRegistry()
	require.NoError(t, handlers.Register("render", func(ctx context.Context, input, output map[string]any) (map[string]any, error) {
		return nil, nil
	}))
	svc := newTestService(t, handlers)

	id, err := svc.SubmitJob(context.Background(), SubmitRequest{JobType: "render"})
	require.NoError(t, err)

	job, err := svc.GetJob(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, jobs.PriorityNormal, job.Priority)
}

func TestGetJobNotFound(t *testing.T) {
	svc := newTestService(t, jobs.NewHandlerRegistry())

	_, err := svc.GetJob(context.Background(), uuid.New())
	assert.IsType(t, &ErrJobNotFound{}, err)
}

func TestCancelJobUnknown(t *testing.T) {
	svc := newTestService(t, jobs.NewHandlerRegistry())
	assert.False(t, svc.CancelJob(context.Background(), uuid.New()))
}
