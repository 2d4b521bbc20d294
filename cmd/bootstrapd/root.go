package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/scry-bootstrap/internal/config"
	"github.com/phrazzld/scry-bootstrap/internal/platform/logger"
	"github.com/spf13/cobra"
)

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "bootstrapd",
		Short: "Resilient bootstrap orchestrator",
		Long: `bootstrapd loads module scripts at most once each, then recovers the
signed-in user from the configured sources in priority order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"config file (environment variables prefixed BOOTSTRAP_ take precedence)")

	cmd.AddCommand(
		newRunCmd(opts),
		newServeCmd(opts),
		newMigrateCmd(opts),
	)
	return cmd
}

// loadConfig loads configuration and builds the process logger writing to out.
func (o *rootOptions) loadConfig(out io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.SetupWithWriter(cfg.Server, out)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Debug("configuration loaded",
		"store_driver", cfg.Store.Driver,
		"manifest", cfg.Bootstrap.ManifestPath,
		"session_source_configured", cfg.Bootstrap.SessionURL != "",
		"telemetry_enabled", cfg.Telemetry.OTLPEndpoint != "")
	return cfg, log, nil
}
