// Package api provides HTTP API handlers for the slotfair availability
// engine.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Server is the HTTP API server for the availability engine.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	handler *AvailabilityHandler
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new availability API server.
func NewServer(cfg ServerConfig, handler *AvailabilityHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	s := &Server{
		mux:     mux,
		logger:  logger,
		handler: handler,
	}

	// Register routes
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	// Health check
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Availability API v1
	s.mux.HandleFunc("GET /api/v1/organizers/{organizerID}/event-types/{slug}/availability", s.handler.GetAvailability)

	s.mux.HandleFunc("POST /api/v1/organizers/{organizerID}/availability-rules", s.handler.CreateRule)
	s.mux.HandleFunc("POST /api/v1/organizers/{organizerID}/date-overrides", s.handler.CreateOverride)
	s.mux.HandleFunc("POST /api/v1/organizers/{organizerID}/blocked-times", s.handler.CreateBlockedTime)
	s.mux.HandleFunc("POST /api/v1/organizers/{organizerID}/recurring-blocks", s.handler.CreateRecurringBlock)
	s.mux.HandleFunc("PUT /api/v1/organizers/{organizerID}/buffer-settings", s.handler.UpdateBufferSettings)
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting availability API server",
		"addr", s.server.Addr,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down availability API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Log error but can't do much at this point
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
