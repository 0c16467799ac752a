package events

import (
	"context"
	"encoding/json"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/jobs"
)

const (
	JobMessageKindPrefix = "rendering.jobs.events"
	defaultTopic         = "rendering.jobs.events"
	eventSource          = "rendering.scheduler"
)

// Writer is the interface to be implemented by the underlying writer.
type Writer interface {
	Write(ctx context.Context, topic string, e cloudevents.Event) error
	Close(ctx context.Context) error
}

// JobEvent is the payload attached to every job lifecycle event.
type JobEvent struct {
	JobID      string  `json:"job_id"`
	JobType    string  `json:"job_type"`
	Status     string  `json:"status"`
	Progress   float64 `json:"progress"`
	RetryCount int     `json:"retry_count"`
	Error      string  `json:"error,omitempty"`
}

// EventProducer wraps a Writer with a buffer so emitting a transition never
// blocks the worker that reports it, even when the writer is slow.
type EventProducer struct {
	buffer           *buffer
	startConsumingCh chan any
	doneCh           chan any
	writer           Writer
	topic            string
}

// ProducerOption customizes an EventProducer at construction time.
type ProducerOption func(*EventProducer)

// WithOutputTopic overrides the topic events are written to.
func WithOutputTopic(topic string) ProducerOption {
	return func(ep *EventProducer) {
		ep.topic = topic
	}
}

func NewEventProducer(w Writer, opts ...ProducerOption) *EventProducer {
	ep := &EventProducer{
		buffer:           newBuffer(),
		startConsumingCh: make(chan any, 1),
		doneCh:           make(chan any),
		writer:           w,
		topic:            defaultTopic,
	}

	for _, o := range opts {
		o(ep)
	}

	go ep.run()
	return ep
}

// Notify implements the scheduler's transition observer.
func (ep *EventProducer) Notify(_ context.Context, event string, job jobs.Job) {
	payload := JobEvent{
		JobID:      job.ID.String(),
		JobType:    job.Type,
		Status:     string(job.Status),
		Progress:   job.Progress,
		RetryCount: job.RetryCount,
		Error:      job.ErrorMessage,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		zap.S().Named("event_producer").Errorw("failed to encode job event", "error", err)
		return
	}

	ep.buffer.PushBack(&message{
		Kind: JobMessageKindPrefix + "." + event,
		Data: data,
	})

	// unblock the consumer if it is waiting on an empty buffer
	select {
	case ep.startConsumingCh <- struct{}{}:
	default:
	}
}

func (ep *EventProducer) Close() error {
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(closeCtx)
	g.Go(func() error {
		ep.doneCh <- struct{}{}
		return ep.writer.Close(ctx)
	})
	if err := g.Wait(); err != nil {
		zap.S().Errorf("event producer closed with error: %s", err)
		return err
	}

	zap.S().Named("event_producer").Info("event producer closed")

	return nil
}

func (ep *EventProducer) run() {
	for {
		select {
		case <-ep.doneCh:
			return
		default:
		}

		if ep.buffer.Size() == 0 {
			select {
			case <-ep.startConsumingCh:
			case <-ep.doneCh:
				return
			}
		}

		msg := ep.buffer.Pop()
		if msg == nil {
			continue
		}

		e := cloudevents.NewEvent()
		e.SetID(uuid.NewString())
		e.SetSource(eventSource)
		e.SetType(msg.Kind)
		_ = e.SetData(*cloudevents.StringOfApplicationJSON(), msg.Data)

		if err := ep.writer.Write(context.TODO(), ep.topic, e); err != nil {
			zap.S().Named("event_producer").Errorw("failed to send message", "error", err, "event", e)
		}
	}
}
