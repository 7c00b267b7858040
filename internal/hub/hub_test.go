package hub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHub_Broadcast(t *testing.T) {
	req := require.New(t)
	h := New()

	_, a := h.Subscribe()
	idB, b := h.Subscribe()
	req.Equal(2, h.Len())

	req.NoError(h.WriteLine(context.Background(), "Done (3.2s)!"))
	req.Equal("Done (3.2s)!", <-a)
	req.Equal("Done (3.2s)!", <-b)

	h.Unsubscribe(idB)
	_, open := <-b
	req.False(open)
	req.Equal(1, h.Len())

	// Unsubscribing twice is harmless.
	h.Unsubscribe(idB)
}

func TestHub_SlowListenerDoesNotBlock(t *testing.T) {
	req := require.New(t)
	h := New()
	_, ch := h.Subscribe()

	// Given a listener that never reads
	for range Buffer * 2 {
		req.NoError(h.WriteLine(context.Background(), "line"))
	}

	// Then it kept only its backlog
	req.Len(ch, Buffer)
}
