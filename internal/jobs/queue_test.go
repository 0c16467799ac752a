package jobs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePriorityOrdering(t *testing.T) {
	q := NewQueue(10)

	low := uuid.New()
	normal := uuid.New()
	urgent := uuid.New()
	high := uuid.New()

	require.NoError(t, q.TryEnqueue(low, PriorityLow, nil))
	require.NoError(t, q.TryEnqueue(normal, PriorityNormal, nil))
	require.NoError(t, q.TryEnqueue(urgent, PriorityUrgent, nil))
	require.NoError(t, q.TryEnqueue(high, PriorityHigh, nil))

	for _, want := range []uuid.UUID{urgent, high, normal, low} {
		got, err := q.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestQueueFIFOWithinPriority(t *testing.T) {
	q := NewQueue(10)

	ids := make([]uuid.UUID, 5)
	for i := range ids {
		ids[i] = uuid.New()
		require.NoError(t, q.TryEnqueue(ids[i], PriorityNormal, nil))
	}

	for _, want := range ids {
		got, err := q.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestQueueTryEnqueueFull(t *testing.T) {
	q := NewQueue(2)

	require.NoError(t, q.TryEnqueue(uuid.New(), PriorityNormal, nil))
	require.NoError(t, q.TryEnqueue(uuid.New(), PriorityNormal, nil))

	err := q.TryEnqueue(uuid.New(), PriorityNormal, nil)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 2, q.Len())
}

func TestQueueAdmitCallback(t *testing.T) {
	q := NewQueue(1)

	admitted := 0
	require.NoError(t, q.TryEnqueue(uuid.New(), PriorityNormal, func() { admitted++ }))
	assert.Equal(t, 1, admitted)

	// No admission on rejection.
	err := q.TryEnqueue(uuid.New(), PriorityNormal, func() { admitted++ })
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 1, admitted)

	// No admission after close.
	q.Close()
	err = q.Enqueue(uuid.New(), PriorityNormal, func() { admitted++ })
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.Equal(t, 1, admitted)
}

func TestQueueBlockingEnqueueUnblocks(t *testing.T) {
	q := NewQueue(1)
	require.NoError(t, q.TryEnqueue(uuid.New(), PriorityNormal, nil))

	enqueued := make(chan error, 1)
	go func() {
		enqueued <- q.Enqueue(uuid.New(), PriorityNormal, nil)
	}()

	select {
	case <-enqueued:
		t.Fatal("enqueue should block while the queue is full")
	case <-time.After(50 * time.Millisecond):
	}

	_, err := q.Dequeue()
	require.NoError(t, err)

	select {
	case err := <-enqueued:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("enqueue did not unblock after a slot freed up")
	}
}

func TestQueueDequeueBlocksUntilItem(t *testing.T) {
	q := NewQueue(1)
	id := uuid.New()

	got := make(chan uuid.UUID, 1)
	go func() {
		dequeued, err := q.Dequeue()
		if err == nil {
			got <- dequeued
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.TryEnqueue(id, PriorityNormal, nil))

	select {
	case dequeued := <-got:
		assert.Equal(t, id, dequeued)
	case <-time.After(time.Second):
		t.Fatal("dequeue did not wake up")
	}
}

func TestQueueClose(t *testing.T) {
	q := NewQueue(1)

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Dequeue()
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("dequeue did not observe close")
	}

	assert.ErrorIs(t, q.TryEnqueue(uuid.New(), PriorityNormal, nil), ErrQueueClosed)
	assert.ErrorIs(t, q.Enqueue(uuid.New(), PriorityNormal, nil), ErrQueueClosed)
}
