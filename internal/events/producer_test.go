package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/jobs"
)

var _ = Describe("producer", Ordered, func() {
	Context("notify", func() {
		It("delivers job transitions as cloud events", func() {
			w := newTestWriter()
			ep := NewEventProducer(w, WithOutputTopic("topic1"))

			job := jobs.Job{
				ID:       uuid.New(),
				Type:     "video_composition",
				Status:   jobs.StatusQueued,
				Priority: jobs.PriorityNormal,
			}
			ep.Notify(context.TODO(), "submitted", job)

			Eventually(w.Len, 2*time.Second).Should(Equal(1))
			events := w.Events()
			Expect(events[0].Context.GetType()).To(Equal(JobMessageKindPrefix + ".submitted"))
			Expect(events[0].Context.GetSource()).To(Equal(eventSource))
			Expect(w.Topics()[0]).To(Equal("topic1"))

			var payload JobEvent
			Expect(json.Unmarshal(events[0].Data(), &payload)).To(Succeed())
			Expect(payload.JobID).To(Equal(job.ID.String()))
			Expect(payload.JobType).To(Equal("video_composition"))
			Expect(payload.Status).To(Equal("queued"))

			job.Status = jobs.StatusFailed
			job.RetryCount = 2
			job.ErrorMessage = "encoder crashed"
			ep.Notify(context.TODO(), "failed", job)

			Eventually(w.Len, 2*time.Second).Should(Equal(2))
			events = w.Events()
			Expect(events[1].Context.GetType()).To(Equal(JobMessageKindPrefix + ".failed"))

			Expect(json.Unmarshal(events[1].Data(), &payload)).To(Succeed())
			Expect(payload.RetryCount).To(Equal(2))
			Expect(payload.Error).To(Equal("encoder crashed"))

			Expect(ep.Close()).To(Succeed())
		})
	})
})

type testwriter struct {
	mu     sync.Mutex
	events []cloudevents.Event
	topics []string
}

func newTestWriter() *testwriter {
	return &testwriter{}
}

func (t *testwriter) Write(_ context.Context, topic string, e cloudevents.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	return nil
}

func (t *testwriter) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}

func (t *testwriter) Events() []cloudevents.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]cloudevents.Event{}, t.events...)
}

func (t *testwriter) Topics() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string{}, t.topics...)
}
