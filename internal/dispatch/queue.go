package dispatch

import (
	"context"
	"errors"
	"sync"
)

const DefaultQueueDepth = 10

var ErrQueueClosed = errors.New("event queue closed: dispatcher is gone")

// Sender is the producer side of the queue.
type Sender interface {
	Send(ctx context.Context, ev Event) error
}

// Queue is the bounded, ordered event queue between the adapters and the
// dispatcher. Producers block while it is full.
type Queue struct {
	events chan Event
	done   chan struct{}
	once   sync.Once
}

func NewQueue(depth int) *Queue {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	return &Queue{
		events: make(chan Event, depth),
		done:   make(chan struct{}),
	}
}

// Send enqueues ev, blocking until there is room. It fails with
// ErrQueueClosed once the dispatcher has stopped.
func (q *Queue) Send(ctx context.Context, ev Event) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}
	select {
	case q.events <- ev:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close marks the consumer as gone. Pending and future sends fail.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.done) })
}
