package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/galassia/internal/logger"
)

// Version is reported to clients during initialisation.
const Version = "0.2.0"

// EndpointPath serves the streamable HTTP transport.
const EndpointPath = "/mcp"

const instructions = `galassia answers questions about the intergalactic restaurant dataset.
Call "ask" with a question about dishes, ingredients, techniques, chefs, licences or planets.
When a dish catalog is loaded, "dish_ids" maps dish names to dataset ids without a model call.
Prompt templates are readable as galassia://prompts/{name}.`

// Server exposes the workflow to MCP clients over stdio or HTTP.
type Server struct {
	ports  *Ports
	server *mcp.Server
	log    logger.Scope
}

// NewServer registers the tools and resources the ports allow.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports: ports,
		server: mcp.NewServer(
			&mcp.Implementation{Name: "galassia", Version: Version},
			&mcp.ServerOptions{Instructions: instructions},
		),
		log: logger.Scoped("mcp"),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves a single client on stdin and stdout until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.log.Debug("Serving over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler routes EndpointPath to the streamable transport and answers
// /healthz for load balancers.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Handle(EndpointPath, mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil))
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok\n")) //nolint:errcheck
	}).Methods(http.MethodGet)
	return router
}

// RunHTTP serves Handler on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("HTTP shutdown: %v", err)
		}
	}()

	s.log.Info("Listening on %s%s", addr, EndpointPath)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("mcp http server: %w", err)
	}
	return nil
}
