package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/nwtnni/mc-suite/internal/dispatch"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Lines is a live feed of server output.
type Lines interface {
	Subscribe() (string, <-chan string)
	Unsubscribe(id string)
}

// Console streams server output to a websocket and forwards every text
// frame it receives as a console command.
func (h *Handler) Console(lines Lines) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, feed := lines.Subscribe()
		defer lines.Unsubscribe(id)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("websocket upgrade", "err", err)
			return
		}
		defer conn.Close()

		// Read from WebSocket -> server console
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					return
				}
				line := strings.TrimRight(string(msg), "\r\n")
				if line == "" {
					continue
				}
				if err := h.queue.Send(r.Context(), dispatch.ConsoleLine{Line: line}); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case line, ok := <-feed:
				if !ok {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}
}
