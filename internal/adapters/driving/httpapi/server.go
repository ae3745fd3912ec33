// Package httpapi exposes the workflow over a JSON HTTP API with
// Prometheus metrics.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/core/ports/driving"
	"github.com/custodia-labs/galassia/internal/logger"
)

// ErrMissingWorkflowService is returned when the workflow service is not provided.
var ErrMissingWorkflowService = errors.New("httpapi: workflow service is required")

// ResultFormatter turns result entity names into dataset identifiers.
type ResultFormatter interface {
	Format(results []string) string
}

// Ports holds the collaborators of the HTTP server.
type Ports struct {
	// Workflow answers questions. Required.
	Workflow driving.WorkflowService

	// Formatter adds dataset ids to answers. Optional.
	Formatter ResultFormatter

	// Prompts is reloaded by POST /v1/prompts/reload. Optional.
	Prompts driven.PromptStore

	// Metrics is served on /metrics. Optional.
	Metrics prometheus.Gatherer
}

// Server routes HTTP requests to the workflow.
type Server struct {
	ports  Ports
	router *mux.Router
}

// NewServer creates a server.
func NewServer(ports Ports) (*Server, error) {
	if ports.Workflow == nil {
		return nil, ErrMissingWorkflowService
	}

	s := &Server{ports: ports, router: mux.NewRouter()}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/questions", s.handleAsk).Methods(http.MethodPost)
	v1.HandleFunc("/prompts/reload", s.handleReloadPrompts).Methods(http.MethodPost)

	if s.ports.Metrics != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.ports.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown: %v", err)
		}
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("http server: %w", err)
}
