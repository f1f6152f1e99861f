// Package server exposes the chat service over HTTP. Events stream to the
// client in the protocol's line framing with a flush per event, so partial
// answers appear as the model produces them. Request cancellation propagates
// through the request context into the loop.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/docentsh/docent/core/agent"
	"github.com/docentsh/docent/core/protocol"
)

// Config wires the HTTP server.
type Config struct {
	Addr    string
	Service *agent.Service

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Server is the HTTP transport over one chat service.
type Server struct {
	svc    *agent.Service
	logger *slog.Logger
	http   *http.Server
}

// New creates a server listening on cfg.Addr.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		svc:    cfg.Service,
		logger: cfg.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleClearSession)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the routing for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// handleChat runs one request through the chat service, streaming events as
// they are produced.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req protocol.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)

	start := time.Now()
	s.svc.Chat(r.Context(), &req, func(e protocol.Event) error {
		if err := protocol.Write(w, e); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	s.logger.Info("chat handled",
		"session", req.SessionID,
		"duration", time.Since(start))
}

// handleClearSession drops one conversation's history.
func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	if err := s.svc.ClearSession(r.Context(), id); err != nil {
		s.logger.Error("clear session failed", "session", id, "error", err)
		http.Error(w, "failed to clear session", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
