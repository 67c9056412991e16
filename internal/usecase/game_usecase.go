package usecase

import (
	"context"
	"strings"

	"accmarket/internal/domain/entity"
	"accmarket/internal/domain/repository"
	"accmarket/internal/domain/service"
	"accmarket/pkg/errors"
	"accmarket/pkg/logger"
	"accmarket/pkg/utils"
)

type GameUseCase struct {
	gameRepo repository.GameRepository
}

func NewGameUseCase(gameRepo repository.GameRepository) *GameUseCase {
	return &GameUseCase{
		gameRepo: gameRepo,
	}
}

type GameInput struct {
	Name      string             `json:"name" validate:"required,max=120"`
	Slug      string             `json:"slug" validate:"omitempty,max=160"`
	Icon      string             `json:"icon" validate:"omitempty,url"`
	IsActive  *bool              `json:"is_active"`
	SortOrder int                `json:"sort_order"`
	Fields    []entity.GameField `json:"fields" validate:"dive"`
}

func (in GameInput) slug() string {
	if s := utils.Slugify(in.Slug); s != "" {
		return s
	}
	return utils.Slugify(in.Name)
}

func (uc *GameUseCase) CreateGame(ctx context.Context, input GameInput) (*entity.Game, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.Validation("name", "Game name is required")
	}
	slug := input.slug()
	if slug == "" {
		return nil, errors.Validation("slug", "Game slug must contain letters or digits")
	}
	if err := service.ValidateGameFields(input.Fields); err != nil {
		return nil, err
	}

	game := &entity.Game{
		Name:      name,
		Slug:      slug,
		Icon:      input.Icon,
		IsActive:  input.IsActive == nil || *input.IsActive,
		SortOrder: input.SortOrder,
		Fields:    input.Fields,
	}
	if err := uc.gameRepo.Create(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

// UpdateGame replaces the editable fields. The slug stays as created because
// listing URLs and filters refer to it.
func (uc *GameUseCase) UpdateGame(ctx context.Context, id string, input GameInput) (*entity.Game, error) {
	game, err := uc.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := service.ValidateGameFields(input.Fields); err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		game.Name = name
	}
	game.Icon = input.Icon
	game.SortOrder = input.SortOrder
	game.Fields = input.Fields
	if input.IsActive != nil {
		game.IsActive = *input.IsActive
	}
	if err := uc.gameRepo.Update(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

func (uc *GameUseCase) ListGames(ctx context.Context, activeOnly bool) ([]*entity.Game, error) {
	return uc.gameRepo.List(ctx, activeOnly)
}

// GetPublicGame hides inactive games from public lookups.
func (uc *GameUseCase) GetPublicGame(ctx context.Context, slug string) (*entity.Game, error) {
	game, err := uc.gameRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !game.IsActive {
		return nil, errors.NotFound("Game", nil)
	}
	return game, nil
}

// Seed creates missing games and updates existing ones matched by slug.
// It returns how many were created and updated.
func (uc *GameUseCase) Seed(ctx context.Context, inputs []GameInput) (created, updated int, err error) {
	for _, in := range inputs {
		existing, err := uc.gameRepo.GetBySlug(ctx, in.slug())
		switch {
		case err == nil:
			if _, err := uc.UpdateGame(ctx, existing.ID, in); err != nil {
				return created, updated, err
			}
			updated++
		case errors.Is(err, errors.CodeNotFound):
			if _, err := uc.CreateGame(ctx, in); err != nil {
				return created, updated, err
			}
			created++
		default:
			return created, updated, err
		}
		logger.Debug("Seeded game %s", in.Name)
	}
	return created, updated, nil
}
