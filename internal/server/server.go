package server

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/mnakata/islandhop/internal/model"
	"github.com/mnakata/islandhop/internal/pipeline"
)

// Server exposes the query pipeline over HTTP
type Server struct {
	cfg    model.ServerConfig
	pipe   *pipeline.Pipeline
	logger *zap.Logger
	http   *http.Server
}

// NewServer wires the chat and health endpoints around a pipeline
func NewServer(cfg model.ServerConfig, pipe *pipeline.Pipeline, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{cfg: cfg, pipe: pipe, logger: logger}
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler with request logging attached
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/health", s.handleHealth)
	return s.loggingMiddleware(mux)
}

// ListenAndServe blocks serving requests until the listener fails or
// Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.cfg.Addr))
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
