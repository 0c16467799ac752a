package events

import "sync"

type message struct {
	Kind string
	Data []byte
}

// buffer is an unbounded FIFO of pending event messages. Workers push
// concurrently while the single consumer pops, so access is serialized.
type buffer struct {
	mu    sync.Mutex
	items []*message
}

func newBuffer() *buffer {
	return &buffer{}
}

func (b *buffer) PushBack(msg *message) {
	b.mu.Lock()
	b.items = append(b.items, msg)
	b.mu.Unlock()
}

// Pop removes and returns the oldest message, or nil when empty.
func (b *buffer) Pop() *message {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.items) == 0 {
		return nil
	}
	msg := b.items[0]
	b.items[0] = nil
	b.items = b.items[1:]
	if len(b.items) == 0 {
		b.items = nil
	}
	return msg
}

func (b *buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
