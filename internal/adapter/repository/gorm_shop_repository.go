package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"accmarket/internal/domain/entity"
	"accmarket/internal/domain/repository"
	"accmarket/pkg/errors"
)

type gormShopRepository struct {
	gormStore
}

func NewGormShopRepository(db *gorm.DB, retry Retrier) repository.ShopRepository {
	return &gormShopRepository{gormStore{db: db, retry: retry}}
}

func (r *gormShopRepository) Create(ctx context.Context, shop *entity.Shop) error {
	if shop.ID == "" {
		shop.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	shop.CreatedAt = now
	shop.UpdatedAt = now

	_, err := r.exec(ctx, "create shop", func(tx *gorm.DB) *gorm.DB {
		return tx.Create(shop)
	})
	if err == nil {
		return nil
	}
	if isDuplicate(err) {
		return r.classifyConflict(ctx, shop)
	}
	return storeErr("Failed to create shop", err)
}

// classifyConflict works out which unique index rejected the insert.
func (r *gormShopRepository) classifyConflict(ctx context.Context, shop *entity.Shop) error {
	var owners int64
	err := r.read(ctx, "count shop owners", func(tx *gorm.DB) error {
		return tx.Model(&entity.Shop{}).Where("owner_id = ?", shop.OwnerID).Count(&owners).Error
	})
	if err == nil && owners > 0 {
		return errors.DuplicateShop()
	}
	return errors.SlugCollision(shop.Slug)
}

func (r *gormShopRepository) GetByID(ctx context.Context, id string) (*entity.Shop, error) {
	var shop entity.Shop
	if err := r.first(ctx, "Shop", &shop, "id = ?", id); err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *gormShopRepository) GetBySlug(ctx context.Context, slug string) (*entity.Shop, error) {
	var shop entity.Shop
	if err := r.first(ctx, "Shop", &shop, "slug = ?", slug); err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *gormShopRepository) GetByOwnerID(ctx context.Context, ownerID string) (*entity.Shop, error) {
	var shop entity.Shop
	if err := r.first(ctx, "Shop", &shop, "owner_id = ?", ownerID); err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *gormShopRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Shop, error) {
	out := make(map[string]*entity.Shop, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var shops []*entity.Shop
	err := r.read(ctx, "get shops", func(tx *gorm.DB) error {
		return tx.Where("id IN ?", ids).Find(&shops).Error
	})
	if err != nil {
		return nil, storeErr("Failed to get shops", err)
	}
	for _, s := range shops {
		out[s.ID] = s
	}
	return out, nil
}

func (r *gormShopRepository) List(ctx context.Context, filter repository.ShopFilter) ([]*entity.Shop, int64, error) {
	var (
		shops []*entity.Shop
		total int64
	)
	err := r.read(ctx, "list shops", func(tx *gorm.DB) error {
		q := tx.Model(&entity.Shop{})
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		q = q.Order("created_at ASC, id ASC")
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit).Offset(filter.Offset)
		}
		return q.Find(&shops).Error
	})
	if err != nil {
		return nil, 0, storeErr("Failed to list shops", err)
	}
	return shops, total, nil
}

func (r *gormShopRepository) ListApproved(ctx context.Context) ([]*entity.Shop, error) {
	var shops []*entity.Shop
	err := r.read(ctx, "list approved shops", func(tx *gorm.DB) error {
		return tx.Where("status = ?", entity.ShopApproved).Order("created_at ASC, id ASC").Find(&shops).Error
	})
	if err != nil {
		return nil, storeErr("Failed to list shops", err)
	}
	return shops, nil
}

func (r *gormShopRepository) UpdateProfile(ctx context.Context, id string, profile entity.ShopProfile) error {
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if profile.Description != nil {
		updates["description"] = *profile.Description
	}
	if profile.AvatarURL != nil {
		updates["avatar_url"] = *profile.AvatarURL
	}
	if profile.CoverURL != nil {
		updates["cover_url"] = *profile.CoverURL
	}
	return r.updateOne(ctx, "update shop profile", id, updates)
}

func (r *gormShopRepository) TransitionStatus(ctx context.Context, id string, from []entity.ShopStatus, to entity.ShopStatus, change entity.ShopStatusChange) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if change.RejectReason != nil {
		updates["reject_reason"] = *change.RejectReason
	}
	if change.ApprovedAt != nil {
		updates["approved_at"] = *change.ApprovedAt
	}

	rows, err := r.exec(ctx, "transition shop", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&entity.Shop{}).Where("id = ? AND status IN ?", id, from).Updates(updates)
	})
	if err != nil {
		return false, storeErr("Failed to update shop status", err)
	}
	return rows == 1, nil
}

func (r *gormShopRepository) SetVerified(ctx context.Context, id string, verified bool) error {
	return r.updateOne(ctx, "set shop verified", id, map[string]interface{}{
		"is_verified": verified,
		"updated_at":  time.Now().UTC(),
	})
}

func (r *gormShopRepository) SetVIP(ctx context.Context, id string, active bool, endTime *time.Time) error {
	return r.updateOne(ctx, "set shop vip", id, map[string]interface{}{
		"is_vip_shop":       active,
		"vip_shop_end_time": endTime,
		"updated_at":        time.Now().UTC(),
	})
}

func (r *gormShopRepository) SetPartner(ctx context.Context, id string, partner bool, tier string, since *time.Time) error {
	return r.updateOne(ctx, "set shop partner", id, map[string]interface{}{
		"is_strategic_partner": partner,
		"partner_tier":         tier,
		"partner_since":        since,
		"updated_at":           time.Now().UTC(),
	})
}

func (r *gormShopRepository) IncrementViews(ctx context.Context, id string) error {
	return r.increment(ctx, id, "total_views")
}

func (r *gormShopRepository) IncrementSales(ctx context.Context, id string) error {
	return r.increment(ctx, id, "total_sales")
}

func (r *gormShopRepository) increment(ctx context.Context, id, column string) error {
	rows, err := r.exec(ctx, "increment shop "+column, func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&entity.Shop{}).Where("id = ?", id).
			UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	})
	if err != nil {
		return storeErr("Failed to update shop counters", err)
	}
	if rows == 0 {
		return errors.NotFound("Shop", nil)
	}
	return nil
}

func (r *gormShopRepository) updateOne(ctx context.Context, op, id string, updates map[string]interface{}) error {
	rows, err := r.exec(ctx, op, func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&entity.Shop{}).Where("id = ?", id).Updates(updates)
	})
	if err != nil {
		return storeErr("Failed to update shop", err)
	}
	if rows == 0 {
		return errors.NotFound("Shop", nil)
	}
	return nil
}
