package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/EvgeniyKhan/post/internal/cache"
	"github.com/EvgeniyKhan/post/internal/config"
	"github.com/EvgeniyKhan/post/internal/http/handlers/health"
	"github.com/EvgeniyKhan/post/internal/http/middlewarectx"
	"github.com/EvgeniyKhan/post/internal/lib/jwt"
	"github.com/EvgeniyKhan/post/internal/lib/sl"
	"github.com/EvgeniyKhan/post/internal/migrations"
	"github.com/EvgeniyKhan/post/internal/paymentprovider"
	"github.com/EvgeniyKhan/post/internal/services/access"
	articleservice "github.com/EvgeniyKhan/post/internal/services/article"
	authservice "github.com/EvgeniyKhan/post/internal/services/auth"
	subservice "github.com/EvgeniyKhan/post/internal/services/subscription"
	"github.com/EvgeniyKhan/post/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-сервер блога и его ресурсы.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New подключается к базе и Redis, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.blog.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	gateway := paymentprovider.NewClient(cfg.Stripe, logger)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	policy := access.NewPolicy(db, gateway, logger)
	authService := authservice.NewService(db, cacheRedis, jwtMaker, logger)
	articleService := articleservice.NewService(db, policy, logger)
	subscriptionService := subservice.NewService(db, gateway, cacheRedis, gateway.UnitAmount(), logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Auth:          authService,
		Articles:      articleService,
		Subscriptions: subscriptionService,
		Webhook:       paymentprovider.NewWebhookVerifier(cfg.WebhookSecret),
		Limiter:       middlewarectx.NewLimiter(cfg.RateLimit),
		Health: map[string]health.Pinger{
			"postgres": health.PingerFunc(db.DB.PingContext),
			"redis": health.PingerFunc(func(ctx context.Context) error {
				return cacheRedis.Db.Ping(ctx).Err()
			}),
		},
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run обслуживает запросы до отмены ctx, затем останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	if closeErr := a.cache.Close(); closeErr != nil {
		a.logger.Error("failed to close redis", sl.Err(closeErr))
	}
	if closeErr := a.db.Close(); closeErr != nil {
		a.logger.Error("failed to close database", sl.Err(closeErr))
	}
	return err
}
