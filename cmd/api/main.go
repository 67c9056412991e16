package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"accmarket/pkg/config"
	"accmarket/pkg/logger"
)

func main() {
	root := &cobra.Command{
		Use:          "accmarket",
		Short:        "Game account marketplace API",
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedGamesCmd(),
		newSetRoleCmd(),
	)

	err := root.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Configure(cfg.Environment)
	return cfg, nil
}
