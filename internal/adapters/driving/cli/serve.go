package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/galassia/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/galassia/internal/bootstrap"
	"github.com/custodia-labs/galassia/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Starts the HTTP API:

  POST /v1/questions       {"question": "...", "id": 1}
  POST /v1/prompts/reload  drop cached prompt templates
  GET  /healthz
  GET  /metrics            Prometheus metrics

Prompt template files are watched and reloaded when they change.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := openServices(ctx, bootstrap.Options{RequireLLM: true, Registry: registry})
	if err != nil {
		return err
	}
	defer svc.Close()

	server, err := httpapi.NewServer(httpapi.Ports{
		Workflow:  svc.Workflow,
		Formatter: svc.Formatter,
		Prompts:   svc.Prompts,
		Metrics:   registry,
	})
	if err != nil {
		return err
	}

	watchPrompts(ctx, svc)

	cmd.Printf("HTTP API listening on %s\n", serveAddr)
	return server.Run(ctx, serveAddr)
}

// watchPrompts reloads prompt templates on change until ctx ends.
func watchPrompts(ctx context.Context, svc *bootstrap.Services) {
	if svc.Prompts == nil {
		return
	}
	go func() {
		if err := svc.Prompts.Watch(ctx); err != nil {
			logger.Warn("Prompt watcher stopped: %v", err)
		}
	}()
}
