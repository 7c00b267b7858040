package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueue_BlocksWhenFull(t *testing.T) {
	req := require.New(t)
	q := NewQueue(1)

	req.NoError(q.Send(context.Background(), ConsoleLine{Line: "first"}))

	// Given a full queue, a send waits until its context gives up
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req.ErrorIs(q.Send(ctx, ConsoleLine{Line: "second"}), context.DeadlineExceeded)

	// Then draining makes room again
	req.Equal(ConsoleLine{Line: "first"}, <-q.events)
	req.NoError(q.Send(context.Background(), ConsoleLine{Line: "third"}))
}

func TestQueue_CloseReleasesBlockedSenders(t *testing.T) {
	req := require.New(t)
	q := NewQueue(1)
	req.NoError(q.Send(context.Background(), ConsoleLine{Line: "fill"}))

	errs := make(chan error, 1)
	go func() { errs <- q.Send(context.Background(), ConsoleLine{Line: "blocked"}) }()

	q.Close()
	q.Close()
	select {
	case err := <-errs:
		req.ErrorIs(err, ErrQueueClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("sender stayed blocked")
	}
}

func TestNewQueue_DefaultDepth(t *testing.T) {
	require.Equal(t, DefaultQueueDepth, cap(NewQueue(0).events))
}
