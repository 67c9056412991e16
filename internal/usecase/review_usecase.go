package usecase

import (
	"context"
	"strings"

	"accmarket/internal/domain/entity"
	"accmarket/internal/domain/repository"
	"accmarket/pkg/errors"
)

// ReviewUseCase records buyer feedback after a mediated sale and keeps the
// shop's rating aggregate in step with the stored reviews.
type ReviewUseCase struct {
	reviewRepo repository.ReviewRepository
	shopRepo   repository.ShopRepository
}

func NewReviewUseCase(
	reviewRepo repository.ReviewRepository,
	shopRepo repository.ShopRepository,
) *ReviewUseCase {
	return &ReviewUseCase{
		reviewRepo: reviewRepo,
		shopRepo:   shopRepo,
	}
}

type CreateReviewInput struct {
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Text      string `json:"text" validate:"max=2000"`
	BuyerName string `json:"buyer_name" validate:"required,max=120"`
}

type ReviewResult struct {
	Review *entity.Review   `json:"review"`
	Stats  entity.ShopStats `json:"stats"`
}

func (uc *ReviewUseCase) CreateReview(ctx context.Context, shopID string, input CreateReviewInput) (*ReviewResult, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, errors.Validation("rating", "Rating must be between 1 and 5")
	}
	buyer := strings.TrimSpace(input.BuyerName)
	if buyer == "" {
		return nil, errors.Validation("buyer_name", "Buyer name is required")
	}
	if _, err := uc.shopRepo.GetByID(ctx, shopID); err != nil {
		return nil, err
	}

	review := &entity.Review{
		ShopID:    shopID,
		Rating:    input.Rating,
		Text:      strings.TrimSpace(input.Text),
		BuyerName: buyer,
	}
	if err := uc.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}
	stats, err := uc.reviewRepo.RefreshShopStats(ctx, shopID)
	if err != nil {
		return nil, err
	}
	return &ReviewResult{Review: review, Stats: stats}, nil
}

func (uc *ReviewUseCase) DeleteReview(ctx context.Context, id string) (*entity.ShopStats, error) {
	review, err := uc.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.reviewRepo.Delete(ctx, id); err != nil {
		return nil, err
	}
	stats, err := uc.reviewRepo.RefreshShopStats(ctx, review.ShopID)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListByShopSlug pages the reviews of a publicly visible shop.
func (uc *ReviewUseCase) ListByShopSlug(ctx context.Context, slug string, limit, offset int) ([]*entity.Review, int64, error) {
	shop, err := uc.shopRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, 0, err
	}
	if !shop.IsPublic() {
		return nil, 0, errors.NotFound("Shop", nil)
	}
	return uc.reviewRepo.ListByShop(ctx, shop.ID, limit, offset)
}
