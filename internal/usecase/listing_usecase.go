package usecase

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"accmarket/internal/domain/entity"
	"accmarket/internal/domain/repository"
	"accmarket/internal/domain/service"
	"accmarket/pkg/errors"
	"accmarket/pkg/logger"
	"accmarket/pkg/utils"
)

const shopPageReviews = 10

// ListingUseCase serves the public read side: home ranking, acc search and
// shop pages. Every result is filtered by the display rule.
type ListingUseCase struct {
	shopRepo   repository.ShopRepository
	accRepo    repository.AccRepository
	gameRepo   repository.GameRepository
	reviewRepo repository.ReviewRepository
	policy     service.CommissionPolicy
	now        func() time.Time
}

func NewListingUseCase(
	shopRepo repository.ShopRepository,
	accRepo repository.AccRepository,
	gameRepo repository.GameRepository,
	reviewRepo repository.ReviewRepository,
	policy service.CommissionPolicy,
) *ListingUseCase {
	return &ListingUseCase{
		shopRepo:   shopRepo,
		accRepo:    accRepo,
		gameRepo:   gameRepo,
		reviewRepo: reviewRepo,
		policy:     policy,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type HomeShops struct {
	Partners          []*entity.Shop `json:"partners"`
	VIPs              []*entity.Shop `json:"vips"`
	Developing        []*entity.Shop `json:"developing"`
	DevelopingPreview []*entity.Shop `json:"developing_preview"`
	HasMore           bool           `json:"has_more"`
}

type AccQuery struct {
	Game     string
	Sort     string
	MinPrice int64
	MaxPrice int64
	Q        string
	Limit    int
	Offset   int
}

type ShopPage struct {
	Shop         *entity.Shop       `json:"shop"`
	Commission   service.Commission `json:"commission"`
	Accs         []*entity.Acc      `json:"accs"`
	Reviews      []*entity.Review   `json:"reviews"`
	TotalReviews int64              `json:"total_reviews"`
}

func (uc *ListingUseCase) HomeShops(ctx context.Context) (*HomeShops, error) {
	shops, err := uc.shopRepo.ListApproved(ctx)
	if err != nil {
		return nil, err
	}
	ranking := service.RankShops(shops, uc.now())
	preview, more := ranking.DevelopingPage(service.DevelopingPreviewSize)
	return &HomeShops{
		Partners:          ranking.Partners,
		VIPs:              ranking.VIPs,
		Developing:        ranking.Developing,
		DevelopingPreview: preview,
		HasMore:           more,
	}, nil
}

// SearchAccs returns one page of publicly visible accs, VIP first and then
// by the requested sort, plus the total match count.
func (uc *ListingUseCase) SearchAccs(ctx context.Context, q AccQuery) ([]*entity.Acc, int64, error) {
	if q.MinPrice < 0 || q.MaxPrice < 0 {
		return nil, 0, errors.Validation("price", "price bounds must not be negative")
	}
	if q.MaxPrice > 0 && q.MinPrice > q.MaxPrice {
		return nil, 0, errors.Validation("minPrice", "minPrice must not exceed maxPrice")
	}

	filter := repository.AccFilter{MinPrice: q.MinPrice, MaxPrice: q.MaxPrice, Query: q.Q}
	if q.Game != "" {
		gameID, err := uc.resolveGame(ctx, q.Game)
		if err != nil {
			return nil, 0, err
		}
		filter.GameID = gameID
	}

	accs, err := uc.accRepo.ListPublic(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	ranked := service.RankAccs(accs, service.ParseAccSort(q.Sort))
	return utils.Window(ranked, q.Offset, q.Limit), int64(len(ranked)), nil
}

// resolveGame accepts a game slug or id.
func (uc *ListingUseCase) resolveGame(ctx context.Context, key string) (string, error) {
	game, err := uc.gameRepo.GetBySlug(ctx, key)
	if err == nil {
		return game.ID, nil
	}
	if !errors.Is(err, errors.CodeNotFound) {
		return "", err
	}
	return key, nil
}

// GetAcc returns a publicly visible acc and its shop.
func (uc *ListingUseCase) GetAcc(ctx context.Context, slug string) (*entity.Acc, *entity.Shop, error) {
	acc, err := uc.accRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	shop, err := uc.shopRepo.GetByID(ctx, acc.SellerID)
	if err != nil && !errors.Is(err, errors.CodeNotFound) {
		return nil, nil, err
	}
	if !entity.IsPubliclyVisible(acc, shop) {
		return nil, nil, errors.NotFound("Acc", nil)
	}
	return acc, shop, nil
}

// ShopPage loads an approved shop with its live accs and latest reviews.
func (uc *ListingUseCase) ShopPage(ctx context.Context, slug string, sort string) (*ShopPage, error) {
	shop, err := uc.shopRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !shop.IsPublic() {
		return nil, errors.NotFound("Shop", nil)
	}

	page := &ShopPage{Shop: shop, Commission: uc.policy.For(shop, uc.now())}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		accs, err := uc.accRepo.ListPublic(gctx, repository.AccFilter{SellerID: shop.ID})
		if err != nil {
			return err
		}
		page.Accs = service.RankAccs(accs, service.ParseAccSort(sort))
		return nil
	})
	g.Go(func() error {
		reviews, total, err := uc.reviewRepo.ListByShop(gctx, shop.ID, shopPageReviews, 0)
		if err != nil {
			return err
		}
		page.Reviews, page.TotalReviews = reviews, total
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := uc.shopRepo.IncrementViews(ctx, shop.ID); err != nil {
		logger.Warn("Failed to record view for shop %s: %v", shop.ID, err)
	}
	return page, nil
}
