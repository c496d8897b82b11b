// Package scheduler периодически ставит в очередь проверку незавершённых оплат.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/EvgeniyKhan/post/internal/lib/rabbitmq"
	"github.com/EvgeniyKhan/post/internal/lib/sl"
	"github.com/EvgeniyKhan/post/internal/models"
)

// PendingLister отдаёт неоплаченные подписки.
type PendingLister interface {
	ListPending(ctx context.Context, lookback time.Duration) ([]*models.Subscription, error)
}

// Publisher публикует сообщение в брокер.
type Publisher interface {
	Publish(exchange, routingKey string, message any) error
}

// Service планировщик проверок оплат.
type Service struct {
	subs      PendingLister
	publisher Publisher
	interval  time.Duration
	lookback  time.Duration
	log       *slog.Logger
}

// NewService создаёт планировщик.
func NewService(subs PendingLister, publisher Publisher, interval, lookback time.Duration, log *slog.Logger) *Service {
	return &Service{
		subs:      subs,
		publisher: publisher,
		interval:  interval,
		lookback:  lookback,
		log:       log,
	}
}

// Run выполняет проверку сразу и затем каждые interval до отмены ctx.
func (s *Service) Run(ctx context.Context) {
	s.PublishPending(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.PublishPending(ctx)
		}
	}
}

// PublishPending публикует по одному сообщению на каждую незавершённую оплату
// и возвращает число опубликованных.
func (s *Service) PublishPending(ctx context.Context) int {
	s.log.Info("looking for pending payments")
	pending, err := s.subs.ListPending(ctx, s.lookback)
	if err != nil {
		s.log.Error("failed to list pending subscriptions", sl.Err(err))
		return 0
	}
	if len(pending) == 0 {
		s.log.Info("no pending payments found")
		return 0
	}

	published := 0
	for _, sub := range pending {
		msg := models.PaymentCheck{SubscriptionID: sub.ID, SessionID: sub.ContentID}
		err = s.publisher.Publish(rabbitmq.PaymentsExchange, rabbitmq.PaymentCheckRoutingKey, msg)
		if err != nil {
			s.log.Error("failed to publish message", slog.Int64("subscription_id", sub.ID), sl.Err(err))
			continue
		}
		published++
	}
	s.log.Info("pending payments published", slog.Int("count", published), slog.Int("found", len(pending)))
	return published
}
