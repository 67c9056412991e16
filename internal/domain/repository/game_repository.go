package repository

import (
	"context"

	"accmarket/internal/domain/entity"
)

type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Game, error)
	List(ctx context.Context, activeOnly bool) ([]*entity.Game, error)
	Update(ctx context.Context, game *entity.Game) error
}
