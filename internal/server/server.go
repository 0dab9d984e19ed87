// Package server provides the HTTP and WebSocket transport for the engine.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/engine"
)

// maxBodyBytes caps request bodies at 1 MiB. Oversized bodies fail the
// JSON decode and return 400.
const maxBodyBytes = 1 << 20

// Config holds server configuration.
type Config struct {
	Addr string
}

// Server routes transport requests into the engine.
type Server struct {
	engine *engine.Engine
	router *chi.Mux
	http   *http.Server
	log    zerolog.Logger
}

// New creates the server and mounts all routes.
func New(cfg Config, eng *engine.Engine, log zerolog.Logger) *Server {
	s := &Server{
		engine: eng,
		router: chi.NewRouter(),
		log:    log.With().Str("component", "server").Logger(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			next.ServeHTTP(w, r)
		})
	})
}

func (s *Server) setupRoutes() {
	s.router.Post("/tick", s.handleTick)
	s.router.Get("/health", s.handleHealth)
	s.router.Post("/diagnose", s.handleDiagnose)
	s.router.Post("/event", s.handleEvent)
	s.router.Post("/config", s.handleConfig)
	s.router.Get("/principles", s.handlePrinciples)

	s.router.Get("/decisions", s.handleDecisions)
	s.router.Get("/decisions/export", s.handleDecisionsExport)

	s.router.Get("/metrics/query", s.handleMetricsQuery)

	s.router.Get("/registry", s.handleRegistryList)
	s.router.Post("/registry", s.handleRegistryRegister)
	s.router.Get("/registry/validate", s.handleRegistryValidate)

	s.router.Get("/ws", s.handleWebSocket)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown or a listen failure.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("Server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve on %s: %w", s.http.Addr, err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error envelope.
func (s *Server) writeError(w http.ResponseWriter, status int, code string, detail string) {
	body := map[string]interface{}{"error": code}
	if detail != "" {
		body["detail"] = detail
	}
	s.writeJSON(w, status, body)
}
