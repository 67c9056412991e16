package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"accmarket/internal/adapter/api"
	"accmarket/internal/adapter/api/handler"
	apimiddleware "accmarket/internal/adapter/api/middleware"
	"accmarket/internal/adapter/api/router"
	"accmarket/internal/domain/service"
	"accmarket/internal/infrastructure/events"
	"accmarket/internal/infrastructure/firebase"
	"accmarket/internal/infrastructure/ratelimit"
	"accmarket/internal/infrastructure/storage"
	"accmarket/internal/usecase"
	"accmarket/pkg/config"
	"accmarket/pkg/logger"
	"accmarket/pkg/response"
)

const shutdownTimeout = 10 * time.Second

type closablePublisher interface {
	usecase.EventPublisher
	Close() error
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	opts := firebase.ClientOptions(cfg)
	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	authClient, err := firebase.NewAuthClient(ctx, app)
	if err != nil {
		return err
	}

	var eventSink closablePublisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		eventSink = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.Info("Publishing domain events to %s on %v", cfg.KafkaTopic, cfg.KafkaBrokers)
	}
	defer eventSink.Close()

	checks := map[string]handler.Check{"store": st.ping}
	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer rdb.Close()
		if err := ratelimit.Ping(ctx, rdb); err != nil {
			return err
		}
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimitPerMinute, time.Minute)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		memory := ratelimit.NewMemoryLimiter(cfg.RateLimitPerMinute, time.Minute)
		memory.StartCleanupRoutine(ctx)
		limiter = memory
		logger.Warn("REDIS_ADDR not set, rate limits are per instance")
	}

	policy := service.CommissionPolicy{
		BaseRate:    cfg.Commission.BaseRate,
		VIPRate:     cfg.Commission.VIPRate,
		PartnerRate: cfg.Commission.PartnerRate,
		MinFee:      cfg.Commission.MinFee,
	}
	shopUseCase := usecase.NewShopUseCase(st.shops, st.accs, eventSink, policy)
	accUseCase := usecase.NewAccUseCase(st.accs, st.shops, st.games, eventSink, cfg.Listing.MinDescriptionLength)
	listingUseCase := usecase.NewListingUseCase(st.shops, st.accs, st.games, st.reviews, policy)
	mediationUseCase := usecase.NewMediationUseCase(listingUseCase, usecase.AdminContact{
		Name: cfg.Mediation.AdminContactName,
		URL:  cfg.Mediation.AdminContactURL,
	})
	if cfg.Mediation.AdminContactURL == "" {
		logger.Warn("ADMIN_CONTACT_URL not set, purchase guides are unavailable")
	}

	handlers := &handler.Handlers{
		Shop:   handler.NewShopHandler(shopUseCase, listingUseCase),
		Acc:    handler.NewAccHandler(accUseCase, listingUseCase, mediationUseCase),
		Admin:  handler.NewAdminHandler(shopUseCase, accUseCase),
		Game:   handler.NewGameHandler(usecase.NewGameUseCase(st.games)),
		Review: handler.NewReviewHandler(usecase.NewReviewUseCase(st.reviews, st.shops)),
		Health: handler.NewHealthHandler(checks),
	}
	if cfg.StorageBucket != "" {
		images, err := storage.NewImageStore(ctx, cfg.StorageBucket, opts...)
		if err != nil {
			return err
		}
		defer images.Close()
		handlers.Upload = handler.NewUploadHandler(images, storage.MaxImageSize)
	} else {
		logger.Warn("STORAGE_BUCKET not set, image uploads are disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = response.ErrorHandler
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(apimiddleware.RequestLogger)
	router.Setup(e, handlers, apimiddleware.NewAuthMiddleware(authClient), apimiddleware.RateLimit(limiter))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
