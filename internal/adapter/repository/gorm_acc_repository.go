package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"accmarket/internal/domain/entity"
	"accmarket/internal/domain/repository"
	"accmarket/pkg/errors"
)

type gormAccRepository struct {
	gormStore
}

func NewGormAccRepository(db *gorm.DB, retry Retrier) repository.AccRepository {
	return &gormAccRepository{gormStore{db: db, retry: retry}}
}

func (r *gormAccRepository) Create(ctx context.Context, acc *entity.Acc) error {
	if acc.ID == "" {
		acc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	acc.CreatedAt = now
	acc.UpdatedAt = now

	_, err := r.exec(ctx, "create acc", func(tx *gorm.DB) *gorm.DB {
		return tx.Create(acc)
	})
	if err == nil {
		return nil
	}
	if isDuplicate(err) {
		return errors.SlugCollision(acc.Slug)
	}
	return storeErr("Failed to create acc", err)
}

func (r *gormAccRepository) GetByID(ctx context.Context, id string) (*entity.Acc, error) {
	var acc entity.Acc
	if err := r.first(ctx, "Acc", &acc, "id = ?", id); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *gormAccRepository) GetBySlug(ctx context.Context, slug string) (*entity.Acc, error) {
	var acc entity.Acc
	if err := r.first(ctx, "Acc", &acc, "slug = ?", slug); err != nil {
		return nil, err
	}
	return &acc, nil
}

func applyAccFilter(q *gorm.DB, filter repository.AccFilter) *gorm.DB {
	if filter.GameID != "" {
		q = q.Where("accs.game_id = ?", filter.GameID)
	}
	if filter.SellerID != "" {
		q = q.Where("accs.seller_id = ?", filter.SellerID)
	}
	if filter.Status != "" {
		q = q.Where("accs.status = ?", filter.Status)
	}
	if filter.MinPrice > 0 {
		q = q.Where("accs.price >= ?", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		q = q.Where("accs.price <= ?", filter.MaxPrice)
	}
	if text := strings.TrimSpace(filter.Query); text != "" {
		q = q.Where("LOWER(accs.title) LIKE ?", "%"+strings.ToLower(text)+"%")
	}
	return q
}

func (r *gormAccRepository) ListPublic(ctx context.Context, filter repository.AccFilter) ([]*entity.Acc, error) {
	filter.Status = ""
	var accs []*entity.Acc
	err := r.read(ctx, "list public accs", func(tx *gorm.DB) error {
		q := tx.Model(&entity.Acc{}).
			Select("accs.*").
			Joins("JOIN shops ON shops.id = accs.seller_id").
			Where("accs.status = ? AND shops.status = ?", entity.AccApproved, entity.ShopApproved)
		return applyAccFilter(q, filter).
			Order("accs.created_at ASC, accs.id ASC").
			Find(&accs).Error
	})
	if err != nil {
		return nil, storeErr("Failed to list accs", err)
	}
	return accs, nil
}

func (r *gormAccRepository) List(ctx context.Context, filter repository.AccFilter, limit, offset int) ([]*entity.Acc, int64, error) {
	var (
		accs  []*entity.Acc
		total int64
	)
	err := r.read(ctx, "list accs", func(tx *gorm.DB) error {
		q := applyAccFilter(tx.Model(&entity.Acc{}), filter)
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		q = q.Order("accs.created_at DESC, accs.id ASC")
		if limit > 0 {
			q = q.Limit(limit).Offset(offset)
		}
		return q.Find(&accs).Error
	})
	if err != nil {
		return nil, 0, storeErr("Failed to list accs", err)
	}
	return accs, total, nil
}

func (r *gormAccRepository) CountByStatus(ctx context.Context, sellerID string) (map[entity.AccStatus]int64, error) {
	var rows []struct {
		Status entity.AccStatus
		Count  int64
	}
	err := r.read(ctx, "count accs", func(tx *gorm.DB) error {
		return tx.Model(&entity.Acc{}).
			Select("status, COUNT(*) AS count").
			Where("seller_id = ?", sellerID).
			Group("status").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, storeErr("Failed to count accs", err)
	}
	out := map[entity.AccStatus]int64{
		entity.AccPending:  0,
		entity.AccApproved: 0,
		entity.AccRejected: 0,
		entity.AccSold:     0,
	}
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *gormAccRepository) ApplyEdit(ctx context.Context, id string, expected, next entity.AccStatus, patch entity.AccPatch) (bool, error) {
	updates := map[string]interface{}{
		"status":     next,
		"updated_at": time.Now().UTC(),
	}
	if patch.GameID != nil {
		updates["game_id"] = *patch.GameID
	}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Price != nil {
		updates["price"] = *patch.Price
	}
	if patch.ClearOriginal {
		updates["original_price"] = nil
	} else if patch.OriginalPrice != nil {
		updates["original_price"] = *patch.OriginalPrice
	}
	if patch.Images != nil {
		updates["images"] = datatypes.JSONSlice[string](patch.Images)
	}
	if patch.Attributes != nil {
		updates["attributes"] = datatypes.JSONMap(patch.Attributes)
	}

	rows, err := r.exec(ctx, "edit acc", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&entity.Acc{}).Where("id = ? AND status = ?", id, expected).Updates(updates)
	})
	if err != nil {
		return false, storeErr("Failed to update acc", err)
	}
	return rows == 1, nil
}

func (r *gormAccRepository) TransitionStatus(ctx context.Context, id string, from []entity.AccStatus, to entity.AccStatus, change entity.AccStatusChange) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if change.AdminNote != nil {
		updates["admin_note"] = *change.AdminNote
	}
	if change.SoldAt != nil {
		updates["sold_at"] = *change.SoldAt
	}

	rows, err := r.exec(ctx, "transition acc", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&entity.Acc{}).Where("id = ? AND status IN ?", id, from).Updates(updates)
	})
	if err != nil {
		return false, storeErr("Failed to update acc status", err)
	}
	return rows == 1, nil
}

func (r *gormAccRepository) SetFlags(ctx context.Context, id string, flags entity.AccFlags) error {
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if flags.IsVip != nil {
		updates["is_vip"] = *flags.IsVip
	}
	if flags.IsHot != nil {
		updates["is_hot"] = *flags.IsHot
	}
	rows, err := r.exec(ctx, "set acc flags", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&entity.Acc{}).Where("id = ?", id).Updates(updates)
	})
	if err != nil {
		return storeErr("Failed to update acc flags", err)
	}
	if rows == 0 {
		return errors.NotFound("Acc", nil)
	}
	return nil
}

func (r *gormAccRepository) IncrementViews(ctx context.Context, id string) error {
	rows, err := r.exec(ctx, "increment acc views", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&entity.Acc{}).Where("id = ?", id).UpdateColumn("views", gorm.Expr("views + ?", 1))
	})
	if err != nil {
		return storeErr("Failed to record view", err)
	}
	if rows == 0 {
		return errors.NotFound("Acc", nil)
	}
	return nil
}

func (r *gormAccRepository) SoftDelete(ctx context.Context, id string) error {
	rows, err := r.exec(ctx, "delete acc", func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id = ?", id).Delete(&entity.Acc{})
	})
	if err != nil {
		return storeErr("Failed to delete acc", err)
	}
	if rows == 0 {
		return errors.NotFound("Acc", nil)
	}
	return nil
}
