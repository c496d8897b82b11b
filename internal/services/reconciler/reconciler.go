// Package reconciler обрабатывает сообщения очереди payments.check.
package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/EvgeniyKhan/post/internal/lib/sl"
	"github.com/EvgeniyKhan/post/internal/models"
)

// Reconciler сверяет оплату с провайдером.
type Reconciler interface {
	Reconcile(ctx context.Context, check models.PaymentCheck) (models.PaymentStatus, error)
}

// Service обработчик сообщений проверки оплаты.
type Service struct {
	subs Reconciler
	log  *slog.Logger
}

// NewService создаёт обработчик.
func NewService(subs Reconciler, log *slog.Logger) *Service {
	return &Service{subs: subs, log: log}
}

// Handle разбирает сообщение и сверяет оплату. Битое сообщение и ошибка провайдера
// подтверждаются без повтора: планировщик опубликует проверку заново.
// Ошибка хранилища возвращается, и сообщение уходит обратно в очередь.
func (s *Service) Handle(ctx context.Context, body []byte) error {
	const op = "reconciler.Handle"
	log := s.log.With(slog.String("op", op))

	var check models.PaymentCheck
	if err := json.Unmarshal(body, &check); err != nil {
		log.Error("malformed payment check message", sl.Err(err))
		return nil
	}
	if check.SessionID == "" {
		log.Warn("payment check without session", slog.Int64("subscription_id", check.SubscriptionID))
		return nil
	}
	log = log.With(
		slog.Int64("subscription_id", check.SubscriptionID),
		slog.String("session_id", check.SessionID),
	)

	status, err := s.subs.Reconcile(ctx, check)
	switch {
	case errors.Is(err, models.ErrPaymentGateway):
		log.Warn("payment gateway unavailable", sl.Err(err))
		return nil
	case errors.Is(err, models.ErrNotFound):
		log.Warn("subscription for session not found", sl.Err(err))
		return nil
	case err != nil:
		return fmt.Errorf("%s: %w", op, err)
	}

	switch status {
	case models.PaymentSucceeded:
		log.Info("payment confirmed")
	case models.PaymentFailed:
		log.Info("checkout expired, dropping")
	default:
		log.Debug("payment still pending")
	}
	return nil
}
