// Package reconciler содержит приложение, которое читает очередь проверок
// оплат и сверяет их с платёжным провайдером.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/EvgeniyKhan/post/internal/cache"
	"github.com/EvgeniyKhan/post/internal/config"
	"github.com/EvgeniyKhan/post/internal/lib/rabbitmq"
	"github.com/EvgeniyKhan/post/internal/lib/sl"
	"github.com/EvgeniyKhan/post/internal/paymentprovider"
	reconcilerservice "github.com/EvgeniyKhan/post/internal/services/reconciler"
	subservice "github.com/EvgeniyKhan/post/internal/services/subscription"
	"github.com/EvgeniyKhan/post/internal/storage/repository"
)

const (
	dbReadyRetries = 10
	dbReadyDelay   = 3 * time.Second
)

// App приложение сверки оплат.
type App struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	db         *repository.Storage
	cache      *cache.Cache
	reconciler *reconcilerservice.Service
	workers    int
	logger     *slog.Logger
}

// New подключается к брокеру, базе и Redis.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = repository.WaitReady(ctx, db, dbReadyRetries, dbReadyDelay); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.PaymentsExchange, rabbitmq.GetPaymentQueues())
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	gateway := paymentprovider.NewClient(cfg.Stripe, logger)
	subscriptions := subservice.NewService(db, gateway, cacheRedis, gateway.UnitAmount(), logger)

	return &App{
		conn:       conn,
		ch:         ch,
		db:         db,
		cache:      cacheRedis,
		reconciler: reconcilerservice.NewService(subscriptions, logger),
		workers:    cfg.RabbitMQWorkers,
		logger:     logger,
	}, nil
}

// Run запускает потребителя очереди и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	done, err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.PaymentCheckQueue, a.workers, a.reconciler.Handle)
	if err != nil {
		a.logger.Error("failed to start payment check consumer", sl.Err(err))
		a.close()
		return err
	}

	<-ctx.Done()
	a.logger.Info("reconciler shutting down gracefully")
	// Канал, Redis и база закрываются только после завершения обработчиков.
	<-done
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
