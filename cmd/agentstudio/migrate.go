package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/config"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/storage"
	"github.com/AhmedFT-hub/FT-Agent-Studio/migrations"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending Postgres migrations",
		Long: `Apply the embedded Postgres migrations that have not run yet.

serve applies them on startup too; use this to migrate before rolling out
replicas. SQLite databases create their schema when opened.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Storage != config.StoragePostgres {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to migrate: storage is", cfg.Storage)
				return nil
			}

			db, err := storage.New(cmd.Context(), cfg.DatabaseURL, "", opts.logger)
			if err != nil {
				return fmt.Errorf("storage: %w", err)
			}
			defer db.Close(cmd.Context())

			ran, err := db.RunMigrations(cmd.Context(), migrations.FS)
			if err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			if len(ran) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, name := range ran {
				fmt.Fprintln(cmd.OutOrStdout(), "applied", name)
			}
			return nil
		},
	}
}
