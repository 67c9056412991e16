package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"accmarket/internal/infrastructure/database"
	"accmarket/pkg/config"
	"accmarket/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the relational schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StoreDriver == config.DriverFirestore {
				return fmt.Errorf("store driver %q has no schema to migrate", cfg.StoreDriver)
			}

			db, err := database.Open(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(db); err != nil {
				return err
			}
			logger.Info("Migrated %d tables", len(database.Models()))
			return nil
		},
	}
}
