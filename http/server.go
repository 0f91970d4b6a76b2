// Package http serves the scoring API over net/http.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server wraps http.Server with the API handler chain.
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
	MaxBodyBytes   int64
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8000,
		Timeout:        30 * time.Second,
		AllowedOrigins: []string{"*"},
		MaxBodyBytes:   1 << 20,
	}
}

func NewServer(config ServerConfig, api *API, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		server: &http.Server{
			Addr:        fmt.Sprintf(":%d", config.Port),
			Handler:     NewHandler(config, api, logger),
			ReadTimeout: config.Timeout,
			IdleTimeout: 120 * time.Second,
		},
		config: config,
		logger: logger,
	}
}

// NewHandler registers the API routes and wraps them in the middleware chain.
func NewHandler(config ServerConfig, api *API, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	api.Register(mux)

	chain := Chain(
		RequestIDMiddleware,                   // 1. request id, so recovery can log it
		RecoveryMiddleware(logger),            // 2. panics become 500s
		LoggerMiddleware(logger),              // 3. access log
		SecurityHeadersMiddleware,             // 4.
		CORSMiddleware(config.AllowedOrigins), // 5.
		TimeoutMiddleware(config.Timeout),     // 6.
		RequestSizeMiddleware(config.MaxBodyBytes),
	)
	return chain(mux)
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.String("addr", s.server.Addr),
		zap.String("feed", "ws://localhost"+s.server.Addr+"/api/ws/predictions"),
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down, waiting up to five seconds for open requests.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func (s *Server) Addr() string {
	return s.server.Addr
}
