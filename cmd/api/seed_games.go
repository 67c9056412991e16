package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"accmarket/internal/usecase"
	"accmarket/pkg/logger"
)

func newSeedGamesCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-games",
		Short: "Create or update games from a JSON file",
		Example: `  accmarket seed-games --file games.json

games.json holds an array of {"name", "slug", "icon", "is_active", "sort_order", "fields"}.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := readGames(file)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.close()

			created, updated, err := usecase.NewGameUseCase(st.games).Seed(cmd.Context(), inputs)
			if err != nil {
				return err
			}
			logger.Info("Seeded games: %d created, %d updated", created, updated)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "games.json", "path to the games JSON file")
	return cmd
}

func readGames(path string) ([]usecase.GameInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var inputs []usecase.GameInput
	if err := json.Unmarshal(raw, &inputs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%s contains no games", path)
	}
	return inputs, nil
}
