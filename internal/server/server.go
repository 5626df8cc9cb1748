// Package server provides the HTTP and websocket surface of the recognizer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/letsfight/internal/action"
	"github.com/ayusman/letsfight/internal/config"
	"github.com/ayusman/letsfight/internal/server/api"
	"github.com/ayusman/letsfight/internal/store"
)

// Controller exposes the recognition loop to the API.
type Controller interface {
	IsEnabled() bool
	SetEnabled(enabled bool)
	Last() action.Result
}

// Config holds the server configuration. Nil fields disable their routes.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Frames     FrameSource
	Actions    *ActionsHandler
	Settings   *config.Settings
	Controller Controller
}

// Server represents the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time

	mu  sync.Mutex
	srv *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Settings != nil {
		s.mux.HandleFunc("/api/config", s.handleConfig)
	}

	if s.config.Controller != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)
	}

	if s.config.Store != nil {
		sessions := api.NewSessionHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	if s.config.Actions != nil {
		s.mux.Handle("/api/actions", s.config.Actions)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Actions != nil {
		response["clients"] = s.config.Actions.Clients()
	}

	writeJSON(w, http.StatusOK, response)
}

// handleConfig handles GET /api/config with the effective settings.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, config.Snapshot(*s.config.Settings))
}

type statusResponse struct {
	Enabled    bool          `json:"enabled"`
	Action     action.Action `json:"action"`
	Confidence float64       `json:"confidence"`
}

type statusRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleStatus reports the current action on GET and toggles recognition on POST.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	c := s.config.Controller

	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "enabled is required"})
			return
		}
		c.SetEnabled(*req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	last := c.Last()
	writeJSON(w, http.StatusOK, statusResponse{
		Enabled:    c.IsEnabled(),
		Action:     last.Action,
		Confidence: last.Confidence,
	})
}

// ListenAndServe starts the HTTP server on the given address.
// It returns nil after Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.mu.Lock()
	s.srv = &http.Server{Addr: addr, Handler: s}
	srv := s.srv
	s.mu.Unlock()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops a server started with ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()

	if s.config.Actions != nil {
		s.config.Actions.Close()
	}
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
