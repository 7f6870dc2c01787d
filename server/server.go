// Package server exposes the order agent over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tbxark/cakeagent/agent"
	"github.com/tbxark/cakeagent/order"
)

// SessionHeader carries the session id when the body does not.
const SessionHeader = "X-Session-ID"

const maxBodyBytes = 1 << 20

type Server struct {
	sessions  *agent.Sessions
	upgrader  websocket.Upgrader
	staticDir string
	mux       *http.ServeMux
}

type Option func(*Server)

// WithStaticDir serves the browser form from dir at /.
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = dir
	}
}

// WithCheckOrigin overrides the websocket origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

func New(sessions *agent.Sessions, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux = s.routes()
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/form", s.handleForm)
	mux.HandleFunc("GET /api/options", s.handleOptions)
	mux.HandleFunc("GET /api/session/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/session/{id}", s.handleDeleteSession)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	if s.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	}
	return mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type chatRequest struct {
	SessionID    string       `json:"sessionId,omitempty"`
	Prompt       string       `json:"prompt"`
	CurrentState *order.State `json:"currentState,omitempty"`
}

type formRequest struct {
	SessionID    string            `json:"sessionId,omitempty"`
	CurrentState *order.State      `json:"currentState,omitempty"`
	Ops          []order.Operation `json:"ops"`
}

type turnResponse struct {
	SessionID string `json:"sessionId"`
	agent.Response
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	id := sessionID(r, req.SessionID)
	resp, err := s.sessions.Turn(r.Context(), id, &agent.Request{
		Prompt:       req.Prompt,
		CurrentState: req.CurrentState,
	})
	if err != nil {
		slog.Error("Chat turn failed", "session", id, "error", err)
		writeError(w, http.StatusInternalServerError, agent.UserFacingError)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{SessionID: id, Response: *resp})
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	var req formRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := sessionID(r, req.SessionID)
	resp, err := s.sessions.ApplyForm(r.Context(), id, &agent.FormRequest{
		CurrentState: req.CurrentState,
		Ops:          req.Ops,
	})
	if err != nil {
		if errors.Is(err, order.ErrInvalidPatch) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("Form edit failed", "session", id, "error", err)
		writeError(w, http.StatusInternalServerError, agent.UserFacingError)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{SessionID: id, Response: *resp})
}

type optionsResponse struct {
	Fields       []order.Field `json:"fields"`
	AllowedPaths []string      `json:"allowedPaths"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, optionsResponse{
		Fields:       order.Fields(),
		AllowedPaths: order.AllowedPaths(),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, ok, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		slog.Error("Load session failed", "session", id, "error", err)
		writeError(w, http.StatusInternalServerError, agent.UserFacingError)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		slog.Error("Delete session failed", "session", id, "error", err)
		writeError(w, http.StatusInternalServerError, agent.UserFacingError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sessionID(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if h := r.Header.Get(SessionHeader); h != "" {
		return h
	}
	return uuid.NewString()
}

func decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.New("failed to read request body")
	}
	if len(data) == 0 {
		return errors.New("request body is empty")
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return errors.New("malformed request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		slog.Error("Encode response failed", "error", err)
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
