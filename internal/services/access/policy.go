// Package access решает, может ли зритель читать статью.
package access

import (
	"context"
	"log/slog"

	"github.com/EvgeniyKhan/post/internal/lib/metrics"
	"github.com/EvgeniyKhan/post/internal/lib/sl"
	"github.com/EvgeniyKhan/post/internal/models"
)

// UserRepository источник пользователя и его подписки.
type UserRepository interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetSubscription(ctx context.Context, id int64) (*models.Subscription, error)
}

// StatusChecker спрашивает у провайдера статус оплаты.
type StatusChecker interface {
	GetPaymentStatus(ctx context.Context, sessionID string) (models.PaymentStatus, error)
}

// Policy правило доступа к премиальным статьям.
// Статус оплаты не кешируется: каждое решение спрашивает провайдера заново.
type Policy struct {
	repo    UserRepository
	gateway StatusChecker
	log     *slog.Logger
}

// NewPolicy создаёт Policy.
func NewPolicy(repo UserRepository, gateway StatusChecker, log *slog.Logger) *Policy {
	return &Policy{
		repo:    repo,
		gateway: gateway,
		log:     log,
	}
}

// CanView разрешает чтение обычных статей всем, а премиальных
// суперпользователю и пользователю с подтверждённой оплатой.
func (p *Policy) CanView(ctx context.Context, article *models.Article, viewer models.Viewer) bool {
	if !article.IsPremium {
		return true
	}
	allowed := p.Entitled(ctx, viewer)
	if !allowed {
		metrics.AccessDeniedTotal.Inc()
	}
	return allowed
}

// Entitled сообщает, открыт ли зрителю премиальный контент.
// Ошибки хранилища и провайдера трактуются как отсутствие подписки.
func (p *Policy) Entitled(ctx context.Context, viewer models.Viewer) bool {
	const op = "access.Entitled"
	if !viewer.Authenticated {
		return false
	}
	if viewer.IsSuperuser {
		return true
	}

	log := p.log.With(slog.String("op", op), slog.Int64("user_id", viewer.UserID))

	user, err := p.repo.GetUser(ctx, viewer.UserID)
	if err != nil {
		log.Warn("failed to load user", sl.Err(err))
		return false
	}
	if user.SubscriptionID == nil {
		return false
	}
	sub, err := p.repo.GetSubscription(ctx, *user.SubscriptionID)
	if err != nil {
		log.Warn("failed to load subscription", sl.Err(err))
		return false
	}
	if sub.ContentID == "" {
		return false
	}

	status, err := p.gateway.GetPaymentStatus(ctx, sub.ContentID)
	if err != nil {
		log.Warn("payment status unavailable, treating as not subscribed", sl.Err(err))
		return false
	}
	return status == models.PaymentSucceeded
}
