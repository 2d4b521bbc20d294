package main

import (
	"errors"
	"fmt"

	"github.com/phrazzld/scry-bootstrap/internal/platform/migrations"
	"github.com/spf13/cobra"
)

var errNoSchema = errors.New("the memory store driver has no schema to migrate")

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|status]",
		Short:     "Apply or inspect state store migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}

			cfg, log, err := opts.loadConfig(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			db, dialect, err := openDatabase(cmd.Context(), cfg.Store)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			if db == nil {
				return errNoSchema
			}
			defer func() {
				if err := db.Close(); err != nil {
					log.Error("error closing database connection", "error", err)
				}
			}()

			if action == "status" {
				return migrations.Status(cmd.Context(), db, dialect, log)
			}
			if err := migrations.Up(cmd.Context(), db, dialect, log); err != nil {
				return err
			}
			log.Info("migrations applied", "driver", cfg.Store.Driver)
			return nil
		},
	}
}
