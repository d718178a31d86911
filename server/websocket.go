package server

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
)

// streamRequest is one user turn sent over the socket.
type streamRequest struct {
	Message string `json:"message"`
}

// streamEvent is one server-to-client frame. Type is "fragment", "done" or
// "error"; Text carries the payload for fragment and error frames.
type streamEvent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

const streamWriteTimeout = 10 * time.Second

// handleStream upgrades to a WebSocket and serves chat turns over it. The
// client sends {"message": ...} frames; each turn is answered with a run of
// fragment frames followed by a done frame. The socket stays open across
// turns until the client closes it.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.session(id)
	if err != nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Error("websocket accept failed", "session_id", id, "error", err)
		return
	}
	defer ws.Close(websocket.StatusInternalError, "stream ended")

	ctx := r.Context()
	for {
		var req streamRequest
		if err := wsjson.Read(ctx, ws, &req); err != nil {
			// Client closed the socket or the request context ended.
			ws.Close(websocket.StatusNormalClosure, "")
			return
		}
		if req.Message == "" {
			if !s.writeEvent(ctx, ws, streamEvent{Type: "error", Text: "message is required"}) {
				return
			}
			continue
		}

		if !s.streamTurn(ctx, ws, sess, req.Message) {
			return
		}
	}
}

// streamTurn runs one chat turn, forwarding fragments to the socket. It
// returns false when the socket is no longer writable.
func (s *Server) streamTurn(ctx context.Context, ws *websocket.Conn, sess *session, message string) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	fragments, err := sess.agent.StreamChat(ctx, message)
	if err != nil {
		return s.writeEvent(ctx, ws, streamEvent{Type: "error", Text: err.Error()})
	}

	for ev := range fragments {
		if ev.Err != nil {
			return s.writeEvent(ctx, ws, streamEvent{Type: "error", Text: ev.Err.Error()})
		}
		if !s.writeEvent(ctx, ws, streamEvent{Type: "fragment", Text: ev.Text}) {
			return false
		}
	}
	return s.writeEvent(ctx, ws, streamEvent{Type: "done"})
}

func (s *Server) writeEvent(ctx context.Context, ws *websocket.Conn, ev streamEvent) bool {
	wctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	if err := wsjson.Write(wctx, ws, ev); err != nil {
		s.logger.Debug("websocket write failed", "error", err)
		return false
	}
	return true
}
