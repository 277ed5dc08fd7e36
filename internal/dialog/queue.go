package dialog

import (
	"context"

	"github.com/google/uuid"
)

// Message is one queued inbound event.
type Message struct {
	ID   string
	Body []byte
}

// Queue is an in-process queue of inbound events backed by a buffered
// channel. The channel adapter enqueues; the worker dequeues. One deployment
// serves one logical stream, so nothing fancier than a channel is needed.
type Queue struct {
	ch chan Message
}

// NewQueue creates a Queue with the provided buffer capacity.
func NewQueue(buffer int) *Queue {
	if buffer <= 0 {
		buffer = 128
	}
	return &Queue{ch: make(chan Message, buffer)}
}

// Enqueue adds a payload or blocks until ctx is done.
func (q *Queue) Enqueue(ctx context.Context, body []byte) error {
	if ctx == nil {
		ctx = context.Background()
	}
	msg := Message{
		ID:   uuid.NewString(),
		Body: body,
	}
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until a message is available or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (Message, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case msg := <-q.ch:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}
