package main

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"gorm.io/gorm"

	"accmarket/internal/adapter/api/handler"
	"accmarket/internal/adapter/repository"
	domainrepo "accmarket/internal/domain/repository"
	"accmarket/internal/infrastructure/database"
	"accmarket/internal/infrastructure/firebase"
	"accmarket/pkg/config"
	"accmarket/pkg/logger"
)

// stores is the Entity Store selected by STORE_DRIVER.
type stores struct {
	shops   domainrepo.ShopRepository
	accs    domainrepo.AccRepository
	games   domainrepo.GameRepository
	reviews domainrepo.ReviewRepository
	ping    handler.Check
	close   func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	retry := repository.NewRetrier(cfg.RetryAttempts, cfg.RetryInitial)

	if cfg.StoreDriver == config.DriverFirestore {
		client, err := firebase.NewFirestoreClient(ctx, cfg, firebase.ClientOptions(cfg)...)
		if err != nil {
			return nil, err
		}
		return &stores{
			shops:   repository.NewFirestoreShopRepository(client, retry),
			accs:    repository.NewFirestoreAccRepository(client, retry),
			games:   repository.NewFirestoreGameRepository(client, retry),
			reviews: repository.NewFirestoreReviewRepository(client, retry),
			ping:    firestorePing(client),
			close: func() {
				if err := client.Close(); err != nil {
					logger.Warn("Error closing Firestore client: %v", err)
				}
			},
		}, nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.StoreDriver == config.DriverSQLite {
		// The sqlite store is for local runs; keep its schema current.
		if err := database.Migrate(db); err != nil {
			database.Close(db)
			return nil, err
		}
	}
	return &stores{
		shops:   repository.NewGormShopRepository(db, retry),
		accs:    repository.NewGormAccRepository(db, retry),
		games:   repository.NewGormGameRepository(db, retry),
		reviews: repository.NewGormReviewRepository(db, retry),
		ping:    gormPing(db),
		close:   func() { database.Close(db) },
	}, nil
}

func gormPing(db *gorm.DB) handler.Check {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func firestorePing(client *firestore.Client) handler.Check {
	return func(ctx context.Context) error {
		if _, err := client.Collection("games").Limit(1).Documents(ctx).GetAll(); err != nil {
			return fmt.Errorf("firestore: %w", err)
		}
		return nil
	}
}
