package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tbxark/cakeagent/agent"
	"github.com/tbxark/cakeagent/dialogue"
	"github.com/tbxark/cakeagent/order"
)

const (
	wsReadLimit   = 512 * 1024
	wsIdleTimeout = 60 * time.Second
)

// SafeConn serializes writes to a websocket connection.
type SafeConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  bool
}

func NewSafeConn(conn *websocket.Conn) *SafeConn {
	return &SafeConn{conn: conn}
}

func (sc *SafeConn) WriteJSON(v any) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	if sc.closed {
		return nil
	}
	return sc.conn.WriteJSON(v)
}

func (sc *SafeConn) Close() error {
	sc.writeMu.Lock()
	sc.closed = true
	sc.writeMu.Unlock()
	return sc.conn.Close()
}

// wsMessage is both directions of the websocket protocol. Clients send
// "chat", "form" or "ping"; the server answers "connected", "turn", "error"
// or "pong".
type wsMessage struct {
	Type         string            `json:"type"`
	SessionID    string            `json:"sessionId,omitempty"`
	Prompt       string            `json:"prompt,omitempty"`
	CurrentState *order.State      `json:"currentState,omitempty"`
	Ops          []order.Operation `json:"ops,omitempty"`
	Reply        string            `json:"reply,omitempty"`
	Error        string            `json:"error,omitempty"`
	Turn         *agent.Response   `json:"turn,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	safeConn := NewSafeConn(conn)
	defer safeConn.Close()

	id := r.URL.Query().Get("session")
	id = sessionID(r, id)
	slog.Debug("WebSocket client connected", "session", id)

	if err := safeConn.WriteJSON(wsMessage{Type: "connected", SessionID: id, Reply: dialogue.Greeting}); err != nil {
		return
	}

	conn.SetReadLimit(wsReadLimit)
	ctx := r.Context()
	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("WebSocket read failed", "session", id, "error", err)
			}
			return
		}
		out := s.handleWebSocketMessage(ctx, id, msg)
		if err := safeConn.WriteJSON(out); err != nil {
			slog.Debug("WebSocket write failed", "session", id, "error", err)
			return
		}
	}
}

func (s *Server) handleWebSocketMessage(ctx context.Context, id string, msg wsMessage) wsMessage {
	var (
		resp *agent.Response
		err  error
	)
	switch msg.Type {
	case "ping":
		return wsMessage{Type: "pong", SessionID: id}
	case "chat":
		if msg.Prompt == "" {
			return wsMessage{Type: "error", SessionID: id, Error: "prompt is required"}
		}
		resp, err = s.sessions.Turn(ctx, id, &agent.Request{Prompt: msg.Prompt, CurrentState: msg.CurrentState})
	case "form":
		resp, err = s.sessions.ApplyForm(ctx, id, &agent.FormRequest{CurrentState: msg.CurrentState, Ops: msg.Ops})
	default:
		return wsMessage{Type: "error", SessionID: id, Error: "unknown message type " + msg.Type}
	}
	if err != nil {
		if errors.Is(err, order.ErrInvalidPatch) {
			return wsMessage{Type: "error", SessionID: id, Error: err.Error()}
		}
		slog.Error("WebSocket turn failed", "session", id, "error", err)
		return wsMessage{Type: "error", SessionID: id, Error: agent.UserFacingError}
	}
	return wsMessage{Type: "turn", SessionID: id, Reply: resp.Reply, Turn: resp}
}
