package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var bootstrapOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the bootstrap HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, log, err := opts.loadConfig(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			app, err := newApplication(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer app.cleanup()

			if bootstrapOnStart {
				go app.initialBootstrap(ctx)
			}
			return app.startHTTPServer(ctx, app.setupRouter())
		},
	}

	cmd.Flags().BoolVar(&bootstrapOnStart, "bootstrap-on-start", true,
		"run the bootstrap sequence once the server starts")
	return cmd
}

// initialBootstrap runs the sequence once in the background. Failures are
// logged; the API stays up so the run can be retried.
func (app *application) initialBootstrap(ctx context.Context) {
	result, err := app.orchestrator.Start(ctx)
	if err != nil {
		app.logger.Error("initial bootstrap failed",
			"run_id", result.RunID,
			"phase", result.Phase,
			"error", err)
		return
	}
	app.logger.Info("initial bootstrap finished",
		"run_id", result.RunID,
		"module_failures", result.Status.ErrorCount,
		"signed_in", result.UserState.Identity.Valid())
}
