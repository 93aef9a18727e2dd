// Package api provides a local HTTP API for controlling the engine and a
// WebSocket stream of matched triggers.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"textexpand/internal/engine"
	"textexpand/internal/protocol"
)

// Controller is the part of the engine the API drives.
type Controller interface {
	Start() error
	Stop() error
	Running() bool
	Hotkeys() []engine.Info
	Hotstrings() []engine.Info
	OnFire(fn func(engine.Fired))
}

// Server provides HTTP API for local control
type Server struct {
	ctrl   Controller
	token  string
	hub    *Hub
	logger *slog.Logger
}

// NewServer creates a new API server. An empty token disables
// authentication.
func NewServer(ctrl Controller, token string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		ctrl:   ctrl,
		token:  token,
		logger: logger,
	}
	s.hub = newHub(s.state, logger)
	ctrl.OnFire(s.hub.BroadcastFired)
	return s
}

// Handler returns the routed and wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/triggers", s.handleTriggers)
	mux.HandleFunc("/api/pause", s.handlePause)
	mux.HandleFunc("/api/resume", s.handleResume)
	mux.HandleFunc("/ws", s.hub.handleWebSocket)
	return s.authMiddleware(s.recoverMiddleware(mux))
}

// Serve runs the API on addr until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	go s.hub.run(ctx)

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("[api] listening", "addr", ln.Addr().String())
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("[api] recovered from panic", "path", r.URL.Path, "panic", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks API token if configured. The event stream may pass
// it as a token query parameter since browsers cannot set headers there.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("[api] request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)

		if r.URL.Path == "/health" || s.token == "" {
			next.ServeHTTP(w, r)
			return
		}

		got := r.Header.Get("Authorization")
		if r.URL.Path == "/ws" && got == "" {
			got = "Bearer " + r.URL.Query().Get("token")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte("Bearer "+s.token)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) state() protocol.StatePayload {
	return protocol.StatePayload{
		Running:    s.ctrl.Running(),
		Hotkeys:    len(s.ctrl.Hotkeys()),
		Hotstrings: len(s.ctrl.Hotstrings()),
	}
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.state())
}

// handleTriggers handles GET /api/triggers
func (s *Server) handleTriggers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, protocol.TriggersResponse{
		Hotkeys:    triggerInfos(s.ctrl.Hotkeys()),
		Hotstrings: triggerInfos(s.ctrl.Hotstrings()),
	})
}

func triggerInfos(infos []engine.Info) []protocol.TriggerInfo {
	out := make([]protocol.TriggerInfo, len(infos))
	for i, info := range infos {
		out[i] = protocol.TriggerInfo{Trigger: info.Trigger, Description: info.Description}
	}
	return out
}

// handlePause handles POST /api/pause
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.setRunning(w, r, false)
}

// handleResume handles POST /api/resume
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.setRunning(w, r, true)
}

func (s *Server) setRunning(w http.ResponseWriter, r *http.Request, run bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var err error
	if run {
		err = s.ctrl.Start()
	} else {
		err = s.ctrl.Stop()
	}
	if err != nil {
		s.logger.Error("[api] state change failed", "running", run, "error", err)
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	state := s.state()
	s.hub.Broadcast(protocol.Message{Type: protocol.TypeState, Payload: state})
	writeJSON(w, state)
}

// BroadcastState tells stream clients about a pause or resume made
// elsewhere, such as from the tray.
func (s *Server) BroadcastState() {
	s.hub.Broadcast(protocol.Message{Type: protocol.TypeState, Payload: s.state()})
}
