package jobs

import (
	"context"
	"fmt"
	"sync"
)

// Handler performs the actual work for one job type. It receives the job's
// input and output payloads verbatim and must honor ctx cancellation: the
// scheduler signals timeouts and cancel requests through ctx only and never
// force-terminates a running handler.
type Handler func(ctx context.Context, input, output map[string]any) (map[string]any, error)

// HandlerRegistry maps job types to their handlers. Registration happens at
// startup by the domain-specific modules; lookups are concurrent-safe.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]Handler)}
}

func (r *HandlerRegistry) Register(jobType string, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[jobType]; ok {
		return fmt.Errorf("handler for job type %q already registered", jobType)
	}
	r.handlers[jobType] = h
	return nil
}

func (r *HandlerRegistry) Get(jobType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[jobType]
	return h, ok
}

func (r *HandlerRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	return types
}

type progressKeyType struct{}

var progressKey progressKeyType

// WithProgress injects a progress reporting function into the handler's
// context. Only the worker that owns the job installs it.
func WithProgress(ctx context.Context, report func(float64)) context.Context {
	return context.WithValue(ctx, progressKey, report)
}

// ReportProgress lets a handler publish its completion fraction in [0,1].
// It is a no-op when called outside a scheduler-owned invocation.
func ReportProgress(ctx context.Context, progress float64) {
	if report, ok := ctx.Value(progressKey).(func(float64)); ok {
		report(progress)
	}
}
