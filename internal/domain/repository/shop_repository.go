package repository

import (
	"context"
	"time"

	"accmarket/internal/domain/entity"
)

type ShopFilter struct {
	Status entity.ShopStatus
	Limit  int
	Offset int
}

type ShopRepository interface {
	// Create fails with DuplicateShop or SlugCollision when the store's
	// unique constraints on owner or slug reject the row.
	Create(ctx context.Context, shop *entity.Shop) error
	GetByID(ctx context.Context, id string) (*entity.Shop, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Shop, error)
	GetByOwnerID(ctx context.Context, ownerID string) (*entity.Shop, error)
	// GetByIDs returns the shops that exist, keyed by id.
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Shop, error)
	List(ctx context.Context, filter ShopFilter) ([]*entity.Shop, int64, error)
	// ListApproved returns every APPROVED shop in creation order.
	ListApproved(ctx context.Context) ([]*entity.Shop, error)

	UpdateProfile(ctx context.Context, id string, profile entity.ShopProfile) error
	// TransitionStatus moves the shop to `to` only while its status is one of
	// `from`. It reports false when no row matched.
	TransitionStatus(ctx context.Context, id string, from []entity.ShopStatus, to entity.ShopStatus, change entity.ShopStatusChange) (bool, error)
	SetVerified(ctx context.Context, id string, verified bool) error
	SetVIP(ctx context.Context, id string, active bool, endTime *time.Time) error
	SetPartner(ctx context.Context, id string, partner bool, tier string, since *time.Time) error
	IncrementViews(ctx context.Context, id string) error
	IncrementSales(ctx context.Context, id string) error
}
