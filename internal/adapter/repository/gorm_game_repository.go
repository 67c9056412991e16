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

type gormGameRepository struct {
	gormStore
}

func NewGormGameRepository(db *gorm.DB, retry Retrier) repository.GameRepository {
	return &gormGameRepository{gormStore{db: db, retry: retry}}
}

func (r *gormGameRepository) Create(ctx context.Context, game *entity.Game) error {
	if game.ID == "" {
		game.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	game.CreatedAt = now
	game.UpdatedAt = now

	_, err := r.exec(ctx, "create game", func(tx *gorm.DB) *gorm.DB {
		return tx.Create(game)
	})
	if err == nil {
		return nil
	}
	if isDuplicate(err) {
		return errors.SlugCollision(game.Slug)
	}
	return storeErr("Failed to create game", err)
}

func (r *gormGameRepository) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	var game entity.Game
	if err := r.first(ctx, "Game", &game, "id = ?", id); err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gormGameRepository) GetBySlug(ctx context.Context, slug string) (*entity.Game, error) {
	var game entity.Game
	if err := r.first(ctx, "Game", &game, "slug = ?", slug); err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gormGameRepository) List(ctx context.Context, activeOnly bool) ([]*entity.Game, error) {
	var games []*entity.Game
	err := r.read(ctx, "list games", func(tx *gorm.DB) error {
		q := tx.Order("sort_order ASC, name ASC")
		if activeOnly {
			q = q.Where("is_active = ?", true)
		}
		return q.Find(&games).Error
	})
	if err != nil {
		return nil, storeErr("Failed to list games", err)
	}
	return games, nil
}

func (r *gormGameRepository) Update(ctx context.Context, game *entity.Game) error {
	game.UpdatedAt = time.Now().UTC()
	rows, err := r.exec(ctx, "update game", func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&entity.Game{}).Where("id = ?", game.ID).Updates(map[string]interface{}{
			"name":       game.Name,
			"icon":       game.Icon,
			"is_active":  game.IsActive,
			"fields":     game.Fields,
			"sort_order": game.SortOrder,
			"updated_at": game.UpdatedAt,
		})
	})
	if err != nil {
		return storeErr("Failed to update game", err)
	}
	if rows == 0 {
		return errors.NotFound("Game", nil)
	}
	return nil
}
