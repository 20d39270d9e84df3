// Package server exposes the conversation engine over HTTP: a JSON message
// endpoint, a websocket chat, health and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/scrypster/rolodex/internal/config"
	"github.com/scrypster/rolodex/internal/conversation"
	"github.com/scrypster/rolodex/internal/metrics"
	"github.com/scrypster/rolodex/internal/storage"
)

// Version is reported by /healthz.
const Version = "1.0.0"

// Server wires the engine and store into an HTTP handler.
type Server struct {
	cfg     *config.Config
	engine  *conversation.Engine
	store   storage.ContactStore
	metrics *metrics.Collector

	originPatterns []string
	handler        http.Handler
}

// New builds the router. collector may be nil, in which case /metrics is not
// mounted.
func New(cfg *config.Config, engine *conversation.Engine, store storage.ContactStore, collector *metrics.Collector) *Server {
	s := &Server{
		cfg:     cfg,
		engine:  engine,
		store:   store,
		metrics: collector,
		originPatterns: []string{
			fmt.Sprintf("localhost:%d", cfg.Server.Port),
			fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port),
			fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		},
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	rl := NewRateLimiter(s.cfg.RateLimit.RequestsPerSec, s.cfg.RateLimit.Burst)

	r := chi.NewRouter()
	r.Use(securityHeaders)
	r.Use(instrument(s.metrics))
	r.Use(rl.Middleware)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(s.cfg.Security))
		r.Post("/api/messages", s.handleMessage)
		r.Delete("/api/sessions", s.handleReset)
		r.Get("/ws", s.handleChat)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until ctx is cancelled.
// It returns the actual address, which matters when the port is 0.
func (s *Server) Start(ctx context.Context) (string, error) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("server: failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[server] serve error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[server] shutdown error: %v", err)
		}
	}()

	return listener.Addr().String(), nil
}
