// Package api provides HTTP endpoints for cache inspection,
// invalidation and monitoring.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"cachekit/pkg/cache"
	"cachekit/pkg/manager"
)

// TierStats reports per-tier cache statistics. The two-level cache
// satisfies it.
type TierStats interface {
	Stats() map[string]cache.Stats
}

// Server exposes a cache manager and tier statistics over HTTP.
type Server struct {
	manager *manager.Manager
	tiers   TierStats
	logger  *zap.Logger
	server  *http.Server
	config  ServerConfig
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	// Address to listen on (e.g., ":8080")
	Address string

	// ReadTimeout for HTTP requests
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses
	WriteTimeout time.Duration

	// MetricsHandler is mounted at /metrics when non-nil.
	MetricsHandler http.Handler
}

// DefaultServerConfig returns a default configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:      ":8080",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// NewServer creates an API server around the manager. tiers may be nil
// when no layered cache is deployed alongside the manager.
func NewServer(m *manager.Manager, tiers TierStats, logger *zap.Logger, config ServerConfig) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		manager: m,
		tiers:   tiers,
		logger:  logger,
		config:  config,
	}

	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)

	r.HandleFunc("/cache/{key}", s.handleEntry).Methods(http.MethodGet)
	r.HandleFunc("/cache/{key}", s.handleInvalidate).Methods(http.MethodDelete)
	r.HandleFunc("/invalidate", s.handleInvalidatePattern).Methods(http.MethodPost)
	r.HandleFunc("/optimize", s.handleOptimize).Methods(http.MethodPost)

	if config.MetricsHandler != nil {
		r.Handle("/metrics", config.MetricsHandler).Methods(http.MethodGet)
	}

	s.server = &http.Server{
		Addr:         config.Address,
		Handler:      r,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s
}

// Handler returns the server's root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("api server listening", zap.String("address", s.config.Address))
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("api server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// handleStats returns manager statistics plus per-tier statistics when
// a layered cache is attached.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"timestamp": time.Now().Unix(),
		"manager":   s.manager.Stats(),
	}
	if s.tiers != nil {
		response["tiers"] = s.tiers.Stats()
	}

	writeJSON(w, http.StatusOK, response)
}

// handleEntry returns the stored payload along with access diagnostics.
func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if err := cache.ValidateKey(key); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	details, ok := s.manager.Details(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": "key not found",
			"key":   key,
		})
		return
	}

	response := map[string]interface{}{
		"key":     key,
		"details": details,
	}
	if data, ok := s.manager.Get(key); ok {
		response["value"] = data
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if err := cache.ValidateKey(key); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	removed := s.manager.Invalidate(key)
	s.logger.Debug("invalidate requested", zap.String("key", key), zap.Bool("removed", removed))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":     key,
		"removed": removed,
	})
}

// handleInvalidatePattern removes every key matching the pattern given
// in the request body. Patterns use prefix matching with an optional
// trailing asterisk.
func (s *Server) handleInvalidatePattern(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pattern string `json:"pattern"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "invalid request body",
		})
		return
	}
	if req.Pattern == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "pattern is required",
		})
		return
	}

	removed := s.manager.InvalidatePattern(req.Pattern)
	s.logger.Info("pattern invalidation", zap.String("pattern", req.Pattern), zap.Int("removed", removed))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pattern": req.Pattern,
		"removed": removed,
	})
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	report := s.manager.Optimize()
	writeJSON(w, http.StatusOK, report)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
