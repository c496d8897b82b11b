// Package subscription оформление и подтверждение платной подписки.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/EvgeniyKhan/post/internal/cache"
	"github.com/EvgeniyKhan/post/internal/lib/sl"
	"github.com/EvgeniyKhan/post/internal/models"
)

// Repository хранилище пользователей и подписок.
type Repository interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetSubscription(ctx context.Context, id int64) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, userID, price int64, paymentDate time.Time) (int64, error)
	AttachCheckout(ctx context.Context, subscriptionID, userID int64, checkout models.Checkout) error
	ConfirmBySession(ctx context.Context, sessionID string, paidAt time.Time) (*models.Subscription, error)
	ListPending(ctx context.Context, since time.Time) ([]*models.Subscription, error)
}

// Gateway платёжный провайдер.
type Gateway interface {
	CreateProduct(ctx context.Context, subscriptionID int64, description string) (string, error)
	CreatePrice(ctx context.Context, productID string) (string, error)
	CreateCheckoutSession(ctx context.Context, priceID string) (string, string, error)
	GetPaymentStatus(ctx context.Context, sessionID string) (models.PaymentStatus, error)
}

// Cache сбрасывает закешированный профиль после изменения подписки.
type Cache interface {
	Invalidate(ctx context.Context, key string) error
}

// Service сценарии оформления подписки.
type Service struct {
	repo    Repository
	gateway Gateway
	cache   Cache
	price   int64
	log     *slog.Logger
	now     func() time.Time
}

// NewService создаёт Service. price стоимость подписки в минимальных единицах валюты.
func NewService(repo Repository, gateway Gateway, cache Cache, price int64, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		gateway: gateway,
		cache:   cache,
		price:   price,
		log:     log,
		now:     time.Now,
	}
}

// Start оформляет подписку и возвращает ссылку на оплату.
// При ошибке провайдера локальная запись остаётся неоплаченной и не удаляется.
func (s *Service) Start(ctx context.Context, userID int64) (string, error) {
	const op = "subscription.Start"
	log := s.log.With(slog.String("op", op), slog.Int64("user_id", userID))

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if user.SubscriptionID != nil {
		current, err := s.repo.GetSubscription(ctx, *user.SubscriptionID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if current != nil && current.ContentID != "" {
			status, err := s.gateway.GetPaymentStatus(ctx, current.ContentID)
			if err != nil {
				return "", fmt.Errorf("%s: %w", op, err)
			}
			if status == models.PaymentSucceeded {
				return "", fmt.Errorf("%s: %w", op, models.ErrAlreadySubscribed)
			}
		}
	}

	subID, err := s.repo.CreateSubscription(ctx, userID, s.price, s.now())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	productID, err := s.gateway.CreateProduct(ctx, subID, fmt.Sprintf("Подписка пользователя %s", user.PhoneNumber))
	if err != nil {
		log.Error("failed to create product", slog.Int64("subscription_id", subID), sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	priceID, err := s.gateway.CreatePrice(ctx, productID)
	if err != nil {
		log.Error("failed to create price", slog.Int64("subscription_id", subID), sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	sessionID, paymentURL, err := s.gateway.CreateCheckoutSession(ctx, priceID)
	if err != nil {
		log.Error("failed to create checkout session", slog.Int64("subscription_id", subID), sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	err = s.repo.AttachCheckout(ctx, subID, userID, models.Checkout{
		ProductID:  productID,
		PriceID:    priceID,
		SessionID:  sessionID,
		PaymentURL: paymentURL,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateProfile(ctx, userID)

	log.Info("checkout started", slog.Int64("subscription_id", subID), slog.String("session_id", sessionID))
	return paymentURL, nil
}

// Status возвращает статус оплаты текущей подписки пользователя.
// Если провайдер уже сообщил об оплате, подписка подтверждается.
func (s *Service) Status(ctx context.Context, userID int64) (models.PaymentStatus, error) {
	const op = "subscription.Status"

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if user.SubscriptionID == nil {
		return "", fmt.Errorf("%s: no subscription: %w", op, models.ErrNotFound)
	}
	sub, err := s.repo.GetSubscription(ctx, *user.SubscriptionID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if sub.ContentID == "" {
		return models.PaymentPending, nil
	}

	status, err := s.gateway.GetPaymentStatus(ctx, sub.ContentID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if status == models.PaymentSucceeded && !sub.IsSubscribed {
		if _, err = s.ConfirmBySession(ctx, sub.ContentID); err != nil {
			s.log.Warn("failed to confirm paid subscription", slog.String("op", op), sl.Err(err))
		}
	}
	return status, nil
}

// ConfirmBySession помечает подписку с данной сессией оплаченной. Идемпотентна.
func (s *Service) ConfirmBySession(ctx context.Context, sessionID string) (*models.Subscription, error) {
	const op = "subscription.ConfirmBySession"

	sub, err := s.repo.ConfirmBySession(ctx, sessionID, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub.UserID != nil {
		s.invalidateProfile(ctx, *sub.UserID)
	}
	s.log.Info("subscription confirmed",
		slog.String("op", op),
		slog.Int64("subscription_id", sub.ID),
		slog.String("session_id", sessionID),
	)
	return sub, nil
}

// ListPending возвращает неоплаченные подписки, начатые за последние lookback.
func (s *Service) ListPending(ctx context.Context, lookback time.Duration) ([]*models.Subscription, error) {
	const op = "subscription.ListPending"
	subs, err := s.repo.ListPending(ctx, s.now().Add(-lookback))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// Reconcile сверяет одну незавершённую оплату с провайдером.
// Оплаченная подтверждается, отменённая и ожидающая остаются как есть.
func (s *Service) Reconcile(ctx context.Context, check models.PaymentCheck) (models.PaymentStatus, error) {
	const op = "subscription.Reconcile"

	status, err := s.gateway.GetPaymentStatus(ctx, check.SessionID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if status == models.PaymentSucceeded {
		if _, err = s.ConfirmBySession(ctx, check.SessionID); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}
	return status, nil
}

func (s *Service) invalidateProfile(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cache.ProfileKey(userID)); err != nil {
		s.log.Warn("failed to invalidate profile cache", slog.Int64("user_id", userID), sl.Err(err))
	}
}
