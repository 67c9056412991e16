package repository

import (
	"context"
	"math"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"accmarket/internal/domain/entity"
	"accmarket/internal/domain/repository"
	"accmarket/pkg/utils"
)

type firestoreReviewRepository struct {
	firestoreStore
}

func NewFirestoreReviewRepository(client *firestore.Client, retry Retrier) repository.ReviewRepository {
	return &firestoreReviewRepository{firestoreStore{client: client, retry: retry}}
}

func (r *firestoreReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	review.CreatedAt = time.Now().UTC()

	err := r.write(ctx, "create review", func(ctx context.Context) error {
		_, err := r.client.Collection(colReviews).Doc(review.ID).Set(ctx, review)
		return err
	})
	if err != nil {
		return fsErr("Review", "Failed to create review", err)
	}
	return nil
}

func (r *firestoreReviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	var review entity.Review
	err := r.do(ctx, "get review", func(ctx context.Context) error {
		doc, err := r.client.Collection(colReviews).Doc(id).Get(ctx)
		if err != nil {
			return err
		}
		return doc.DataTo(&review)
	})
	if err != nil {
		return nil, fsErr("Review", "Failed to get review", err)
	}
	return &review, nil
}

func (r *firestoreReviewRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	err := r.write(ctx, "delete review", func(ctx context.Context) error {
		_, err := r.client.Collection(colReviews).Doc(id).Delete(ctx)
		return err
	})
	if err != nil {
		return fsErr("Review", "Failed to delete review", err)
	}
	return nil
}

func (r *firestoreReviewRepository) ListByShop(ctx context.Context, shopID string, limit, offset int) ([]*entity.Review, int64, error) {
	var reviews []*entity.Review
	err := r.do(ctx, "list reviews", func(ctx context.Context) error {
		var err error
		reviews, err = collect[entity.Review](r.client.Collection(colReviews).Where("shopId", "==", shopID).Documents(ctx))
		return err
	})
	if err != nil {
		return nil, 0, fsErr("Review", "Failed to list reviews", err)
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		if !reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
		}
		return reviews[i].ID < reviews[j].ID
	})
	total := int64(len(reviews))
	if limit > 0 {
		reviews = utils.Window(reviews, offset, limit)
	}
	return reviews, total, nil
}

func (r *firestoreReviewRepository) RefreshShopStats(ctx context.Context, shopID string) (entity.ShopStats, error) {
	shopRef := r.client.Collection(colShops).Doc(shopID)
	q := r.client.Collection(colReviews).Where("shopId", "==", shopID)
	var stats entity.ShopStats

	err := r.write(ctx, "refresh shop stats", func(ctx context.Context) error {
		return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			if _, err := tx.Get(shopRef); err != nil {
				return err
			}
			reviews, err := collect[entity.Review](tx.Documents(q))
			if err != nil {
				return err
			}
			sum := 0
			for _, rv := range reviews {
				sum += rv.Rating
			}
			stats = entity.ShopStats{TotalReviews: len(reviews)}
			if len(reviews) > 0 {
				stats.Rating = math.Round(float64(sum)/float64(len(reviews))*10) / 10
			}
			return tx.Update(shopRef, []firestore.Update{
				{Path: "rating", Value: stats.Rating},
				{Path: "totalReviews", Value: stats.TotalReviews},
			})
		})
	})
	if err != nil {
		return entity.ShopStats{}, fsErr("Shop", "Failed to refresh shop rating", err)
	}
	return stats, nil
}
