package jobs

import "errors"

var (
	ErrUnknownJobType    = errors.New("unknown job type")
	ErrJobNotFound       = errors.New("job not found")
	ErrQueueFull         = errors.New("submission queue is full")
	ErrQueueClosed       = errors.New("submission queue is closed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotProcessing     = errors.New("job is not being processed")
)
