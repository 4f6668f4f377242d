package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mxschmitt/db-profile-resolver/internal/config"
	"github.com/mxschmitt/db-profile-resolver/internal/profile"
)

// Pinger reports whether the database behind the resolved profile is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	config     *config.Config
	profile    profile.Profile
	report     profile.Report
	db         Pinger
	logger     *zap.Logger
	httpServer *http.Server
}

func New(cfg *config.Config, p profile.Profile, report profile.Report, db Pinger, logger *zap.Logger) *Server {
	s := &Server{
		config:  cfg,
		profile: p,
		report:  report,
		db:      db,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/", s.handleRoot)

	s.httpServer = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("0.0.0.0:%d", s.config.ServicePort)
	s.httpServer.Addr = addr
	s.logger.Info("API server listening", zap.String("address", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

// Handler returns the HTTP handler for testing purposes
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.logger.Warn("Database not reachable", zap.Error(err))
		s.errorResponse(w, "Database not reachable", http.StatusServiceUnavailable)
		return
	}

	s.jsonResponse(w, map[string]interface{}{
		"status":    "ready",
		"dialect":   s.profile.Dialect,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleStatus never includes the password, only whether one is set.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	statusData := map[string]interface{}{
		"environment":     s.profile.Environment,
		"tier":            s.report.Tier,
		"dialect":         s.profile.Dialect,
		"password_set":    s.profile.PasswordSet(),
		"timezone":        s.profile.Timezone,
		"logging_enabled": s.profile.LoggingEnabled,
		"pool":            s.profile.Pool,
		"naming":          s.profile.Naming,
		"tls":             s.profile.TLS,
		"warnings":        len(s.report.Warnings()),
	}

	if s.profile.IsSQLite() {
		statusData["storage_path"] = s.profile.StoragePath
	} else {
		statusData["host"] = s.profile.Host
		statusData["port"] = s.profile.Port
		statusData["database"] = s.profile.Database
		statusData["username_set"] = s.profile.Username != ""
	}

	s.jsonResponse(w, statusData)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.errorResponse(w, "Not found", http.StatusNotFound)
		return
	}
	s.jsonResponse(w, map[string]interface{}{
		"service": "Database Profile Service",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":    "/healthz",
			"readiness": "/readyz",
			"status":    "/status",
		},
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": message,
	})
}
