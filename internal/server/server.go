// Package server exposes process metrics and liveness over HTTP while a
// pipeline runs.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanonone/kektorgraph/pkg/errors"
	"github.com/sanonone/kektorgraph/pkg/logger"
)

// Server serves /metrics and /healthz.
type Server struct {
	httpServer *http.Server
	started    time.Time
	log        *zap.SugaredLogger
}

// New creates a server bound to addr. A nil logger uses the process logger.
func New(addr string, log *zap.SugaredLogger) *Server {
	s := &Server{started: time.Now(), log: logger.Named(log, "server")}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Recovery -> Logging -> Mux
	var handler http.Handler = mux
	handler = s.LoggingMiddleware(handler)
	handler = s.RecoveryMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the root handler, middlewares included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens until Shutdown is called.
func (s *Server) Run() error {
	s.log.Infow("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "HTTP server startup failed")
	}
	return nil
}

// Shutdown stops the server, waiting up to two seconds for open requests.
func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Warnw("HTTP server shutdown error", "error", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}
