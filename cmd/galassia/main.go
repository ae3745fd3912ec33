// Command galassia answers questions about the galactic restaurant dataset.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/galassia/internal/adapters/driven/ai"
	"github.com/custodia-labs/galassia/internal/adapters/driven/config/file"
	"github.com/custodia-labs/galassia/internal/adapters/driving/cli"
	"github.com/custodia-labs/galassia/internal/bootstrap"
	"github.com/custodia-labs/galassia/internal/core/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	store, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open config: %v\n", err)
		return err
	}

	cli.SetServices(services.NewSettingsService(store, ai.NewConfigValidator()), bootstrap.New)
	cli.SetVersion(version)
	return cli.Execute(ctx)
}
