package source

import (
	"context"
	"fmt"
	"net"

	"github.com/charmbracelet/log"

	"github.com/nwtnni/mc-suite/internal/dispatch"
)

// ShutdownListener turns the first accepted connection into a Shutdown
// event. Whatever the peer sends is ignored.
type ShutdownListener struct {
	Listener net.Listener
	Queue    dispatch.Sender
	Logger   *log.Logger
}

func Listen(ctx context.Context, addr string) (net.Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for shutdown on %s: %w", addr, err)
	}
	return ln, nil
}

// Run accepts one connection, enqueues Shutdown and then waits for ctx so
// the dispatcher handles the event before the other tasks are cancelled.
func (l *ShutdownListener) Run(ctx context.Context) error {
	defer l.Listener.Close()
	stop := context.AfterFunc(ctx, func() { l.Listener.Close() })
	defer stop()

	conn, err := l.Listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("accept shutdown connection: %w", err)
	}
	peer := conn.RemoteAddr().String()
	conn.Close()

	if l.Logger != nil {
		l.Logger.Info("shutdown requested", "peer", peer)
	}
	if err := l.Queue.Send(ctx, dispatch.Shutdown{Reason: "connection from " + peer}); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	<-ctx.Done()
	return nil
}
