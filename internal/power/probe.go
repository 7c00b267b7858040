package power

import (
	"context"
	"net"
)

// Accepting reports whether addr accepts TCP connections.
func Accepting(ctx context.Context, dialer *net.Dialer, addr string) bool {
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
