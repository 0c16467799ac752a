package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrJobNotFound struct {
	error
}

func NewErrJobNotFound(id uuid.UUID) *ErrJobNotFound {
	return &ErrJobNotFound{fmt.Errorf("job %s not found", id)}
}

type ErrUnknownJobType struct {
	error
}

func NewErrUnknownJobType(jobType string) *ErrUnknownJobType {
	return &ErrUnknownJobType{fmt.Errorf("unknown job type %q", jobType)}
}

type ErrInvalidRequest struct {
	error
}

func NewErrInvalidRequest(message string) *ErrInvalidRequest {
	return &ErrInvalidRequest{fmt.Errorf("bad request: %s", message)}
}

type ErrQueueFull struct {
	error
}

func NewErrQueueFull() *ErrQueueFull {
	return &ErrQueueFull{fmt.Errorf("submission queue is at capacity, retry later")}
}
