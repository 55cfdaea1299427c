package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Server exposes the agent's operational endpoints: health probes,
// Prometheus metrics, and the discovery card.
type Server struct {
	port    int
	checker *HealthChecker
	card    any

	httpServer *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAgentCard serves the discovery document at
// /.well-known/agent.json.
func WithAgentCard(card any) ServerOption {
	return func(s *Server) {
		s.card = card
	}
}

// NewServer creates an observability server over the given checker.
func NewServer(port int, checker *HealthChecker, opts ...ServerOption) *Server {
	s := &Server{port: port, checker: checker}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start serves until Shutdown or a listener error.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.checker.Handler())
	mux.HandleFunc("/health/live", s.checker.LivenessHandler())
	mux.HandleFunc("/health/ready", s.checker.ReadinessHandler())
	mux.Handle("/metrics", MetricsHandler())
	if s.card != nil {
		mux.HandleFunc("/.well-known/agent.json", s.cardHandler)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) cardHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.card)
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
