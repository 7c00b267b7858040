// Package hub fans server output out to live console subscribers.
package hub

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Buffer is the per-subscriber backlog. A subscriber that falls further
// behind misses lines.
const Buffer = 64

type Hub struct {
	mu        sync.RWMutex
	listeners map[string]chan string
}

func New() *Hub {
	return &Hub{listeners: make(map[string]chan string)}
}

// Subscribe registers a listener and returns its id and line channel.
func (h *Hub) Subscribe() (string, <-chan string) {
	id := uuid.NewString()
	ch := make(chan string, Buffer)
	h.mu.Lock()
	h.listeners[id] = ch
	h.mu.Unlock()
	return id, ch
}

// Unsubscribe removes the listener and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// WriteLine broadcasts line without blocking the caller.
func (h *Hub) WriteLine(_ context.Context, line string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- line:
		default:
			// Drop if listener is slow
		}
	}
	return nil
}
