// Package cli implements the galassia command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/galassia/internal/bootstrap"
	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driving"
	"github.com/custodia-labs/galassia/internal/logger"
)

// ServicesFactory builds the services a command needs from settings.
// bootstrap.New is the production factory.
type ServicesFactory func(
	ctx context.Context, settings *domain.AppSettings, opts bootstrap.Options,
) (*bootstrap.Services, error)

var (
	version = "dev"
	verbose bool

	settingsService driving.SettingsService
	servicesFactory ServicesFactory
)

var rootCmd = &cobra.Command{
	Use:   "galassia",
	Short: "Answer questions about the galactic restaurant dataset",
	Long: `galassia resolves natural-language questions about restaurants, dishes,
chefs and planets. Each question runs through a bounded workflow that routes,
retrieves, grades and generates an answer, then lists the matching dishes.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print workflow stages to stderr")
}

// SetServices injects the settings service and the services factory.
func SetServices(settings driving.SettingsService, factory ServicesFactory) {
	settingsService = settings
	servicesFactory = factory
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openServices reads the current settings and builds services from them.
func openServices(ctx context.Context, opts bootstrap.Options) (*bootstrap.Services, error) {
	if settingsService == nil || servicesFactory == nil {
		return nil, errors.New("services not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	svc, err := servicesFactory(ctx, settings, opts)
	if err != nil {
		return nil, err
	}
	for _, w := range svc.Warnings {
		logger.Warn("%s", w)
	}
	return svc, nil
}
