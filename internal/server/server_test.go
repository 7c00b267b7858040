package server

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/nwtnni/mc-suite/internal/auth"
	"github.com/nwtnni/mc-suite/internal/dispatch"
)

func TestOpenJournal(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	j, closeDB, err := OpenJournal(ctx, filepath.Join(t.TempDir(), "mc.db"))
	req.NoError(err)
	defer closeDB()

	req.NoError(j.RecordPlayer(ctx, "Alice", "join"))
	events, err := j.Players(ctx, 10)
	req.NoError(err)
	req.Len(events, 1)
}

func TestNewAPI_NeedsHash(t *testing.T) {
	_, err := NewAPI(APIOptions{Addr: "127.0.0.1:0", Queue: dispatch.NewQueue(1)})
	require.ErrorIs(t, err, auth.ErrNoHash)
}

func TestHTTP_StopsOnCancel(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())

	s := &HTTP{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler(), Logger: log.New(io.Discard)}
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestHTTP_BadAddress(t *testing.T) {
	s := &HTTP{Addr: "127.0.0.1:-1", Handler: http.NotFoundHandler()}

	require.Error(t, s.Run(context.Background()))
}
