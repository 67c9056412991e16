package repository

import (
	"context"

	"accmarket/internal/domain/entity"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetByID(ctx context.Context, id string) (*entity.Review, error)
	Delete(ctx context.Context, id string) error
	ListByShop(ctx context.Context, shopID string, limit, offset int) ([]*entity.Review, int64, error)
	// RefreshShopStats recomputes rating and review count from the stored
	// reviews and writes them to the shop in one atomic step.
	RefreshShopStats(ctx context.Context, shopID string) (entity.ShopStats, error)
}
