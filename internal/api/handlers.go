package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nwtnni/mc-suite/internal/chat"
	"github.com/nwtnni/mc-suite/internal/dispatch"
	"github.com/nwtnni/mc-suite/internal/journal"
)

// statusTimeout bounds how long a status read waits behind the queue.
const statusTimeout = 5 * time.Second

type History interface {
	Players(ctx context.Context, limit int) ([]journal.PlayerEvent, error)
	Power(ctx context.Context, limit int) ([]journal.PowerEvent, error)
}

type Handler struct {
	queue   dispatch.Sender
	history History
	log     *log.Logger
}

func NewHandler(queue dispatch.Sender, history History, logger *log.Logger) *Handler {
	return &Handler{queue: queue, history: history, log: logger}
}

// Status asks the dispatcher for a snapshot.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
	defer cancel()

	reply := make(chan dispatch.Status, 1)
	if err := h.queue.Send(ctx, dispatch.StatusRequest{Reply: reply}); err != nil {
		h.unavailable(w, err)
		return
	}
	select {
	case status := <-reply:
		writeJSON(w, http.StatusOK, status)
	case <-ctx.Done():
		h.unavailable(w, ctx.Err())
	}
}

// History returns the latest journal rows.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusNotFound, "journal disabled")
		return
	}

	limit := journal.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	players, err := h.history.Players(r.Context(), limit)
	if err != nil {
		h.log.Error("query player history", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to query history")
		return
	}
	power, err := h.history.Power(r.Context(), limit)
	if err != nil {
		h.log.Error("query power history", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to query history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"players": players, "power": power})
}

// Say relays an operator message into the game as if it came from chat.
func (h *Handler) Say(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Author string `json:"author"`
		Body   string `json:"body"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Author == "" || req.Body == "" {
		writeError(w, http.StatusBadRequest, "author and body required")
		return
	}

	msg := chat.Message{Author: req.Author, Body: req.Body, Origin: chat.Console}
	if err := h.queue.Send(r.Context(), dispatch.ChatMessage{Message: msg}); err != nil {
		h.unavailable(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "queued"})
}

// Shutdown stops the server the same way the shutdown port does.
func (h *Handler) Shutdown(w http.ResponseWriter, r *http.Request) {
	if err := h.queue.Send(r.Context(), dispatch.Shutdown{Reason: "api request"}); err != nil {
		h.unavailable(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "shutting down"})
}

func (h *Handler) unavailable(w http.ResponseWriter, err error) {
	if errors.Is(err, dispatch.ErrQueueClosed) {
		writeError(w, http.StatusServiceUnavailable, "shutting down")
		return
	}
	h.log.Warn("dispatcher unavailable", "err", err)
	writeError(w, http.StatusServiceUnavailable, "dispatcher busy")
}
