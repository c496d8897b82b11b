// Команда csu создаёт суперпользователя из конфига, если его ещё нет.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/EvgeniyKhan/post/internal/cache"
	"github.com/EvgeniyKhan/post/internal/config"
	"github.com/EvgeniyKhan/post/internal/lib/jwt"
	"github.com/EvgeniyKhan/post/internal/lib/sl"
	"github.com/EvgeniyKhan/post/internal/migrations"
	authservice "github.com/EvgeniyKhan/post/internal/services/auth"
	"github.com/EvgeniyKhan/post/internal/storage/repository"
)

const timeout = 30 * time.Second

func main() {
	cfg := config.MustLoad()
	logger := sl.New(cfg.Env, os.Stderr)

	// os.Exit только здесь: defer'ы внутри run успевают закрыть базу и Redis.
	os.Exit(run(cfg, logger))
}

func run(cfg *config.Config, logger *slog.Logger) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		logger.Error("failed to connect storage", sl.Err(err))
		return 1
	}
	defer func() { _ = db.Close() }()

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		logger.Error("failed to apply migrations", sl.Err(err))
		return 1
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		logger.Error("failed to connect redis", sl.Err(err))
		return 1
	}
	defer func() { _ = cacheRedis.Close() }()

	auth := authservice.NewService(db, cacheRedis, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), logger)
	created, err := auth.EnsureSuperuser(ctx, cfg.SuperuserPhone, cfg.SuperuserPassword)
	if err != nil {
		logger.Error("failed to create superuser", sl.Err(err))
		return 1
	}

	if created {
		fmt.Println("Superuser created")
		return 0
	}
	fmt.Println("Superuser already exists")
	return 0
}
