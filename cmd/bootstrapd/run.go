package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/scry-bootstrap/internal/api"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bootstrap sequence once",
		Long: `Run loads every declared module, recovers the user state and prints
the outcome as JSON. It exits non-zero when the run is aborted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, log, err := opts.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			app, err := newApplication(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer app.cleanup()

			return app.runOnce(ctx, cmd)
		},
	}
}

// runOnce runs the orchestrator and writes the redacted result to cmd's
// output. The run's error, if any, is returned after the result is written.
func (app *application) runOnce(ctx context.Context, cmd *cobra.Command) error {
	result, runErr := app.orchestrator.Start(ctx)

	resp := api.NewRunResponse(result)
	if runErr != nil {
		resp.Error = api.GetSafeErrorMessage(runErr)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	if runErr != nil {
		return fmt.Errorf("bootstrap %s: %w", result.Phase, runErr)
	}
	return nil
}
