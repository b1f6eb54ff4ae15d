package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/sciencegpt/internal/tutor"
)

type wsError struct {
	Error string `json:"error"`
}

// handleWebSocket accepts {"type": ...} events and answers each with the
// rendered view. The first frame sent is the page-load view.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)

	// Long-lived connection: lift the server's per-request deadlines.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "session_id", id, "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxBodyBytes)

	ctx := r.Context()
	if !s.respond(ctx, conn, id, tutor.Visit{}) {
		return
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && !errors.Is(err, context.Canceled) {
				slog.Debug("websocket closed", "session_id", id, "error", err)
			}
			return
		}

		ev, err := tutor.DecodeEvent(data)
		if err != nil {
			if werr := wsjson.Write(ctx, conn, wsError{Error: err.Error()}); werr != nil {
				return
			}
			continue
		}
		if !s.respond(ctx, conn, id, ev) {
			return
		}
	}
}

// respond dispatches ev and writes the outcome. It reports false once the
// connection is no longer writable.
func (s *Server) respond(ctx context.Context, conn *websocket.Conn, id string, ev tutor.Event) bool {
	view, err := s.dispatch(ctx, id, ev)
	var payload any = view
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			slog.Error("dispatch failed", "event", ev.Kind(), "session_id", id, "error", err)
		}
		payload = wsError{Error: err.Error()}
	}
	if err := wsjson.Write(ctx, conn, payload); err != nil {
		slog.Debug("websocket write failed", "session_id", id, "error", err)
		return false
	}
	return true
}
