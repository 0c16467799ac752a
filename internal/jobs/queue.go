package jobs

import (
	"container/heap"
	"sync"

	"github.com/google/uuid"
)

type queueItem struct {
	id       uuid.UUID
	priority Priority
	seq      uint64
}

// priorityHeap orders items by priority, then submission order within one
// priority level (FIFO). No global FIFO is guaranteed across priorities.
type priorityHeap []*queueItem

func (h priorityHeap) Len() int { return len(h) }

func (h priorityHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h priorityHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *priorityHeap) Push(x any) {
	*h = append(*h, x.(*queueItem))
}

func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	*h = old[:n-1]
	return item
}

// Queue is the bounded, priority-ordered submission queue. Its capacity is
// the system's backpressure boundary: once full, Enqueue blocks and
// TryEnqueue fails, keeping memory usage bounded under overload.
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	items    priorityHeap
	capacity int
	seq      uint64
	closed   bool
}

func NewQueue(capacity int) *Queue {
	q := &Queue{capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds a job reference, blocking while the queue is at capacity.
// The onAdmit callback, if non-nil, runs under the queue lock once capacity
// is granted and before any consumer can observe the item, so callers can
// publish admission state without a window where the item is visible to
// workers but not yet admitted.
func (q *Queue) Enqueue(id uuid.UUID, priority Priority, onAdmit func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) >= q.capacity && !q.closed {
		q.notFull.Wait()
	}
	return q.pushLocked(id, priority, onAdmit)
}

// TryEnqueue adds a job reference or fails immediately with ErrQueueFull
// when at capacity. This is the non-blocking backpressure policy. onAdmit
// runs as in Enqueue and never runs on rejection.
func (q *Queue) TryEnqueue(id uuid.UUID, priority Priority, onAdmit func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed && len(q.items) >= q.capacity {
		return ErrQueueFull
	}
	return q.pushLocked(id, priority, onAdmit)
}

func (q *Queue) pushLocked(id uuid.UUID, priority Priority, onAdmit func()) error {
	if q.closed {
		return ErrQueueClosed
	}
	if onAdmit != nil {
		onAdmit()
	}
	q.seq++
	heap.Push(&q.items, &queueItem{id: id, priority: priority, seq: q.seq})
	q.notEmpty.Signal()
	return nil
}

// Dequeue blocks until a job is available and returns the
// highest-priority, oldest-within-that-priority one. It returns
// ErrQueueClosed once the queue is closed; items still queued at close are
// not handed out, they survive through the persisted snapshot instead.
func (q *Queue) Dequeue() (uuid.UUID, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.closed {
		return uuid.Nil, ErrQueueClosed
	}

	item := heap.Pop(&q.items).(*queueItem)
	q.notFull.Signal()
	return item.id, nil
}

// Len returns the number of queued jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close wakes every blocked producer and consumer. After Close both
// Enqueue and Dequeue report ErrQueueClosed.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}
