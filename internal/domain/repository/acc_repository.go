package repository

import (
	"context"

	"accmarket/internal/domain/entity"
)

// AccFilter narrows a listing query. Zero values mean "no filter".
type AccFilter struct {
	GameID   string
	SellerID string
	Status   entity.AccStatus
	MinPrice int64
	MaxPrice int64
	Query    string
}

type AccRepository interface {
	Create(ctx context.Context, acc *entity.Acc) error
	GetByID(ctx context.Context, id string) (*entity.Acc, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Acc, error)

	// ListPublic returns accs that are APPROVED and whose shop is APPROVED,
	// in creation order. Ordering for display is the ranking engine's job.
	ListPublic(ctx context.Context, filter AccFilter) ([]*entity.Acc, error)
	List(ctx context.Context, filter AccFilter, limit, offset int) ([]*entity.Acc, int64, error)
	CountByStatus(ctx context.Context, sellerID string) (map[entity.AccStatus]int64, error)

	// ApplyEdit writes the patch and sets status to `next` only while the
	// current status equals `expected`.
	ApplyEdit(ctx context.Context, id string, expected, next entity.AccStatus, patch entity.AccPatch) (bool, error)
	TransitionStatus(ctx context.Context, id string, from []entity.AccStatus, to entity.AccStatus, change entity.AccStatusChange) (bool, error)
	SetFlags(ctx context.Context, id string, flags entity.AccFlags) error
	// IncrementViews adds exactly one view using a store-side increment.
	IncrementViews(ctx context.Context, id string) error
	SoftDelete(ctx context.Context, id string) error
}
