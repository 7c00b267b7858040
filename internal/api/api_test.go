package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/nwtnni/mc-suite/internal/auth"
	"github.com/nwtnni/mc-suite/internal/chat"
	"github.com/nwtnni/mc-suite/internal/dispatch"
	"github.com/nwtnni/mc-suite/internal/hub"
	"github.com/nwtnni/mc-suite/internal/journal"
)

const token = "let-me-in"

// fakeQueue answers status requests itself and records everything else.
type fakeQueue struct {
	mu     sync.Mutex
	events []dispatch.Event
	sent   chan struct{}
	closed bool
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{sent: make(chan struct{}, 16)}
}

func (q *fakeQueue) Send(_ context.Context, ev dispatch.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return dispatch.ErrQueueClosed
	}
	if req, ok := ev.(dispatch.StatusRequest); ok {
		req.Reply <- dispatch.Status{Online: []string{"Alice"}, Count: 1, Listeners: 2, Power: "running"}
		return nil
	}
	q.events = append(q.events, ev)
	q.sent <- struct{}{}
	return nil
}

func (q *fakeQueue) recorded() []dispatch.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]dispatch.Event(nil), q.events...)
}

type fakeHistory struct{}

func (fakeHistory) Players(_ context.Context, limit int) ([]journal.PlayerEvent, error) {
	return []journal.PlayerEvent{{ID: "1", Player: "Alice", Action: "join"}}[:min(limit, 1)], nil
}

func (fakeHistory) Power(context.Context, int) ([]journal.PowerEvent, error) {
	return []journal.PowerEvent{}, nil
}

func newRouter(t *testing.T, q dispatch.Sender, lines Lines) http.Handler {
	t.Helper()
	hash, err := auth.HashToken(token)
	require.NoError(t, err)
	verifier, err := auth.NewVerifier(hash)
	require.NoError(t, err)
	return NewRouter(Options{
		Queue:    q,
		Verifier: verifier,
		History:  fakeHistory{},
		Console:  lines,
		Logger:   log.New(io.Discard),
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuth(t *testing.T) {
	req := require.New(t)
	h := newRouter(t, newFakeQueue(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	req.Equal(http.StatusUnauthorized, rec.Code)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	r.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	req.Equal(http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status?token="+token, nil))
	req.Equal(http.StatusOK, rec.Code)
}

func TestStatus(t *testing.T) {
	req := require.New(t)
	h := newRouter(t, newFakeQueue(), nil)

	rec := do(t, h, http.MethodGet, "/api/v1/status", "")
	req.Equal(http.StatusOK, rec.Code)

	var status dispatch.Status
	req.NoError(json.NewDecoder(rec.Body).Decode(&status))
	req.Equal(dispatch.Status{Online: []string{"Alice"}, Count: 1, Listeners: 2, Power: "running"}, status)
}

func TestStatus_DispatcherGone(t *testing.T) {
	q := newFakeQueue()
	q.closed = true
	h := newRouter(t, q, nil)

	rec := do(t, h, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHistory(t *testing.T) {
	req := require.New(t)
	h := newRouter(t, newFakeQueue(), nil)

	rec := do(t, h, http.MethodGet, "/api/v1/history?limit=1", "")
	req.Equal(http.StatusOK, rec.Code)
	req.Contains(rec.Body.String(), `"player":"Alice"`)

	rec = do(t, h, http.MethodGet, "/api/v1/history?limit=-3", "")
	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestConsoleRoutesNeedConsole(t *testing.T) {
	h := newRouter(t, newFakeQueue(), nil)

	rec := do(t, h, http.MethodPost, "/api/v1/shutdown", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShutdownAndSay(t *testing.T) {
	req := require.New(t)
	q := newFakeQueue()
	h := newRouter(t, q, hub.New())

	rec := do(t, h, http.MethodPost, "/api/v1/say", `{"author":"operator","body":"restarting soon"}`)
	req.Equal(http.StatusAccepted, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/v1/say", `{"author":"operator"}`)
	req.Equal(http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/v1/shutdown", "")
	req.Equal(http.StatusAccepted, rec.Code)

	events := q.recorded()
	req.Len(events, 2)
	req.Equal(dispatch.ChatMessage{Message: chat.Message{
		Author: "operator", Body: "restarting soon", Origin: chat.Console,
	}}, events[0])
	req.Equal(dispatch.Shutdown{Reason: "api request"}, events[1])
}

func TestConsoleWebsocket(t *testing.T) {
	req := require.New(t)
	q := newFakeQueue()
	lines := hub.New()
	srv := httptest.NewServer(newRouter(t, q, lines))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/console?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	req.NoError(err)
	defer conn.Close()

	// Server output reaches the client
	req.Equal(1, lines.Len())
	req.NoError(lines.WriteLine(context.Background(), "Alice joined the game"))
	req.NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	_, msg, err := conn.ReadMessage()
	req.NoError(err)
	req.Equal("Alice joined the game", string(msg))

	// Client frames become console lines
	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("/list\n")))
	select {
	case <-q.sent:
	case <-time.After(5 * time.Second):
		t.Fatal("console line not forwarded")
	}
	req.Equal([]dispatch.Event{dispatch.ConsoleLine{Line: "/list"}}, q.recorded())
}

func TestRequestsAreLoggedThroughLogger(t *testing.T) {
	req := require.New(t)
	hash, err := auth.HashToken(token)
	req.NoError(err)
	verifier, err := auth.NewVerifier(hash)
	req.NoError(err)

	var logs bytes.Buffer
	h := NewRouter(Options{
		Queue:    newFakeQueue(),
		Verifier: verifier,
		Logger:   log.New(&logs),
	})

	rec := do(t, h, http.MethodGet, "/api/v1/status", "")
	req.Equal(http.StatusOK, rec.Code)

	line := logs.String()
	req.Contains(line, "request")
	req.Contains(line, "method=GET")
	req.Contains(line, "path=/api/v1/status")
	req.Contains(line, "status=200")
}
