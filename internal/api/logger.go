package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger writes one access line per request through the component
// logger.
type requestLogger struct {
	log *log.Logger
}

func (l requestLogger) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &requestEntry{log: l.log.With("method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)}
}

type requestEntry struct {
	log *log.Logger
}

func (e *requestEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	e.log.Info("request", "status", status, "bytes", bytes, "elapsed", elapsed)
}

func (e *requestEntry) Panic(v interface{}, stack []byte) {
	e.log.Error("handler panicked", "panic", v, "stack", string(stack))
}
