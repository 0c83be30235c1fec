package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qs3c/wpr_server/config"
	"github.com/qs3c/wpr_server/internal/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the report and analysis tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, config.NeedStore)
			if err != nil {
				return err
			}

			db, err := database.Open(&cfg.Database, cfg.Server.Mode)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s database\n", cfg.Database.Driver)
			return nil
		},
	}
}
