package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/galassia/internal/adapters/driving/tui"
	"github.com/custodia-labs/galassia/internal/bootstrap"
	"github.com/custodia-labs/galassia/internal/logger"
)

var consoleCmd = &cobra.Command{
	Use:     "console",
	Aliases: []string{"tui"},
	Short:   "Ask questions interactively",
	Long: `Opens an interactive console. Each question runs through the workflow and
its answer, dishes and dataset ids are added to the session transcript.
Questions are numbered from 1 within a session.

Controls:
  Enter     - Ask
  ↑/↓       - Recall previous questions
  PgUp/PgDn - Scroll the transcript
  Ctrl+T    - Toggle stage traces
  Ctrl+L    - Clear the transcript
  Esc       - Quit`,
	Args: cobra.NoArgs,
	RunE: runConsole,
}

// runProgram runs the console until it exits. Tests replace it.
var runProgram = func(_ context.Context, app *tui.App) error {
	return app.Run()
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in console: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("console panicked: %v", r)
		}
	}()

	ctx := cmd.Context()
	svc, err := openServices(ctx, bootstrap.Options{RequireLLM: true})
	if err != nil {
		return err
	}
	defer svc.Close()

	ports := &tui.Ports{Workflow: svc.Workflow}
	if svc.Formatter != nil {
		ports.Formatter = svc.Formatter
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create console: %w", err)
	}
	app.WithContext(ctx)

	watchPrompts(ctx, svc)

	// Log lines would tear the alternate screen.
	prev := logger.Output()
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(prev)

	if err := runProgram(ctx, app); err != nil {
		return fmt.Errorf("console error: %w", err)
	}
	return nil
}
