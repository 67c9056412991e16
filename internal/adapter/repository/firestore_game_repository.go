package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"accmarket/internal/domain/entity"
	"accmarket/internal/domain/repository"
	"accmarket/pkg/errors"
)

type firestoreGameRepository struct {
	firestoreStore
}

func NewFirestoreGameRepository(client *firestore.Client, retry Retrier) repository.GameRepository {
	return &firestoreGameRepository{firestoreStore{client: client, retry: retry}}
}

func (r *firestoreGameRepository) Create(ctx context.Context, game *entity.Game) error {
	if game.ID == "" {
		game.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	game.CreatedAt = now
	game.UpdatedAt = now

	slugRef := r.client.Collection(colGameSlugs).Doc(game.Slug)
	gameRef := r.client.Collection(colGames).Doc(game.ID)

	err := r.write(ctx, "create game", func(ctx context.Context) error {
		return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			taken, err := exists(tx, slugRef)
			if err != nil {
				return err
			}
			if taken {
				return errors.SlugCollision(game.Slug)
			}
			if err := tx.Create(slugRef, reservation{EntityID: game.ID}); err != nil {
				return err
			}
			return tx.Create(gameRef, game)
		})
	})
	if err != nil {
		return fsErr("Game", "Failed to create game", err)
	}
	return nil
}

func (r *firestoreGameRepository) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	var game entity.Game
	err := r.do(ctx, "get game", func(ctx context.Context) error {
		doc, err := r.client.Collection(colGames).Doc(id).Get(ctx)
		if err != nil {
			return err
		}
		return doc.DataTo(&game)
	})
	if err != nil {
		return nil, fsErr("Game", "Failed to get game", err)
	}
	return &game, nil
}

func (r *firestoreGameRepository) GetBySlug(ctx context.Context, slug string) (*entity.Game, error) {
	var games []*entity.Game
	err := r.do(ctx, "get game", func(ctx context.Context) error {
		var err error
		games, err = collect[entity.Game](r.client.Collection(colGames).Where("slug", "==", slug).Limit(1).Documents(ctx))
		return err
	})
	if err != nil {
		return nil, fsErr("Game", "Failed to get game", err)
	}
	if len(games) == 0 {
		return nil, errors.NotFound("Game", nil)
	}
	return games[0], nil
}

func (r *firestoreGameRepository) List(ctx context.Context, activeOnly bool) ([]*entity.Game, error) {
	q := r.client.Collection(colGames).Query
	if activeOnly {
		q = q.Where("isActive", "==", true)
	}
	var games []*entity.Game
	err := r.do(ctx, "list games", func(ctx context.Context) error {
		var err error
		games, err = collect[entity.Game](q.Documents(ctx))
		return err
	})
	if err != nil {
		return nil, fsErr("Game", "Failed to list games", err)
	}
	sort.SliceStable(games, func(i, j int) bool {
		if games[i].SortOrder != games[j].SortOrder {
			return games[i].SortOrder < games[j].SortOrder
		}
		return games[i].Name < games[j].Name
	})
	return games, nil
}

func (r *firestoreGameRepository) Update(ctx context.Context, game *entity.Game) error {
	game.UpdatedAt = time.Now().UTC()
	err := r.write(ctx, "update game", func(ctx context.Context) error {
		_, err := r.client.Collection(colGames).Doc(game.ID).Update(ctx, []firestore.Update{
			{Path: "name", Value: game.Name},
			{Path: "icon", Value: game.Icon},
			{Path: "isActive", Value: game.IsActive},
			{Path: "fields", Value: []entity.GameField(game.Fields)},
			{Path: "sortOrder", Value: game.SortOrder},
			{Path: "updatedAt", Value: game.UpdatedAt},
		})
		return err
	})
	if err != nil {
		return fsErr("Game", "Failed to update game", err)
	}
	return nil
}
