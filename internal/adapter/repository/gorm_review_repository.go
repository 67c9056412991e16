package repository

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"accmarket/internal/domain/entity"
	"accmarket/internal/domain/repository"
	"accmarket/pkg/errors"
)

type gormReviewRepository struct {
	gormStore
}

func NewGormReviewRepository(db *gorm.DB, retry Retrier) repository.ReviewRepository {
	return &gormReviewRepository{gormStore{db: db, retry: retry}}
}

func (r *gormReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	review.CreatedAt = time.Now().UTC()

	if _, err := r.exec(ctx, "create review", func(tx *gorm.DB) *gorm.DB {
		return tx.Create(review)
	}); err != nil {
		return storeErr("Failed to create review", err)
	}
	return nil
}

func (r *gormReviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	var review entity.Review
	if err := r.first(ctx, "Review", &review, "id = ?", id); err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *gormReviewRepository) Delete(ctx context.Context, id string) error {
	rows, err := r.exec(ctx, "delete review", func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id = ?", id).Delete(&entity.Review{})
	})
	if err != nil {
		return storeErr("Failed to delete review", err)
	}
	if rows == 0 {
		return errors.NotFound("Review", nil)
	}
	return nil
}

func (r *gormReviewRepository) ListByShop(ctx context.Context, shopID string, limit, offset int) ([]*entity.Review, int64, error) {
	var (
		reviews []*entity.Review
		total   int64
	)
	err := r.read(ctx, "list reviews", func(tx *gorm.DB) error {
		q := tx.Model(&entity.Review{}).Where("shop_id = ?", shopID)
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		q = q.Order("created_at DESC, id ASC")
		if limit > 0 {
			q = q.Limit(limit).Offset(offset)
		}
		return q.Find(&reviews).Error
	})
	if err != nil {
		return nil, 0, storeErr("Failed to list reviews", err)
	}
	return reviews, total, nil
}

func (r *gormReviewRepository) RefreshShopStats(ctx context.Context, shopID string) (entity.ShopStats, error) {
	var stats entity.ShopStats
	err := r.retry.DoWrite(ctx, "refresh shop stats", func(ctx context.Context) error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// Serialise concurrent refreshes of the same shop where the dialect allows it.
			lock := tx
			if tx.Dialector.Name() == "postgres" {
				lock = tx.Clauses(clause.Locking{Strength: "UPDATE"})
			}
			var shop entity.Shop
			if err := lock.Select("id").Where("id = ?", shopID).First(&shop).Error; err != nil {
				return err
			}

			var agg struct {
				Avg   float64
				Count int64
			}
			if err := tx.Model(&entity.Review{}).
				Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
				Where("shop_id = ?", shopID).
				Scan(&agg).Error; err != nil {
				return err
			}
			stats = entity.ShopStats{
				Rating:       math.Round(agg.Avg*10) / 10,
				TotalReviews: int(agg.Count),
			}
			return tx.Model(&entity.Shop{}).Where("id = ?", shopID).Updates(map[string]interface{}{
				"rating":        stats.Rating,
				"total_reviews": stats.TotalReviews,
			}).Error
		})
	})
	if err != nil {
		if isNotFound(err) {
			return entity.ShopStats{}, errors.NotFound("Shop", err)
		}
		return entity.ShopStats{}, storeErr("Failed to refresh shop rating", err)
	}
	return stats, nil
}
