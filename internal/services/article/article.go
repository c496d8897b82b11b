// Package article содержит сценарии чтения и редактирования статей блога.
package article

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/EvgeniyKhan/post/internal/lib/metrics"
	"github.com/EvgeniyKhan/post/internal/models"
)

// Repository хранилище статей.
type Repository interface {
	CreateArticle(ctx context.Context, a models.Article) (*models.Article, error)
	GetArticle(ctx context.Context, id int64) (*models.Article, error)
	ListArticles(ctx context.Context) ([]*models.Article, error)
	ListPublicArticles(ctx context.Context) ([]*models.Article, error)
	ListArticlesByOwner(ctx context.Context, ownerID int64) ([]*models.Article, error)
	UpdateArticle(ctx context.Context, a models.Article) (*models.Article, error)
	DeleteArticle(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) (*models.Article, error)
}

// AccessPolicy правило доступа к премиальному контенту.
type AccessPolicy interface {
	CanView(ctx context.Context, article *models.Article, viewer models.Viewer) bool
	Entitled(ctx context.Context, viewer models.Viewer) bool
}

// Service сценарии работы со статьями.
type Service struct {
	repo   Repository
	policy AccessPolicy
	log    *slog.Logger
}

// NewService создаёт Service.
func NewService(repo Repository, policy AccessPolicy, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		policy: policy,
		log:    log,
	}
}

// ListVisible возвращает статьи, которые зритель может читать, в порядке добавления.
// Право на премиальный контент вычисляется не больше одного раза за вызов.
func (s *Service) ListVisible(ctx context.Context, viewer models.Viewer) ([]*models.Article, error) {
	const op = "article.ListVisible"

	if !viewer.Authenticated {
		articles, err := s.repo.ListPublicArticles(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return articles, nil
	}

	articles, err := s.repo.ListArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var entitled, checked bool
	visible := make([]*models.Article, 0, len(articles))
	for _, a := range articles {
		if a.IsPremium {
			if !checked {
				entitled = s.policy.Entitled(ctx, viewer)
				checked = true
			}
			if !entitled {
				continue
			}
		}
		visible = append(visible, a)
	}
	return visible, nil
}

// GetVisible возвращает статью и засчитывает просмотр.
// Запрещённое чтение просмотр не увеличивает.
func (s *Service) GetVisible(ctx context.Context, id int64, viewer models.Viewer) (*models.Article, error) {
	const op = "article.GetVisible"

	a, err := s.repo.GetArticle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !s.policy.CanView(ctx, a, viewer) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	viewed, err := s.repo.IncrementViews(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.ArticleViewsTotal.Inc()
	return viewed, nil
}

// Create публикует статью от имени зрителя.
// Премиальную статью может создать только суперпользователь или автор с оплаченной подпиской.
func (s *Service) Create(ctx context.Context, viewer models.Viewer, in models.ArticleInput) (*models.Article, error) {
	const op = "article.Create"

	if !viewer.Authenticated {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	if in.IsPremium && !s.policy.Entitled(ctx, viewer) {
		return nil, fmt.Errorf("%s: premium requires subscription: %w", op, models.ErrForbidden)
	}

	owner := viewer.UserID
	created, err := s.repo.CreateArticle(ctx, models.Article{
		Title:     in.Title,
		Content:   in.Content,
		Preview:   in.Preview,
		OwnerID:   &owner,
		IsPremium: in.IsPremium,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("article created",
		slog.String("op", op),
		slog.Int64("id", created.ID),
		slog.Int64("owner_id", owner),
		slog.Bool("premium", created.IsPremium),
	)
	return created, nil
}

// Update редактирует статью. Владелец и суперпользователь меняют все поля,
// модератор только заголовок и текст.
func (s *Service) Update(ctx context.Context, viewer models.Viewer, id int64, in models.ArticleInput) (*models.Article, error) {
	const op = "article.Update"

	if !viewer.Authenticated {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	a, err := s.repo.GetArticle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case isOwner(a, viewer) || viewer.IsSuperuser:
		if in.IsPremium && !a.IsPremium && !s.policy.Entitled(ctx, viewer) {
			return nil, fmt.Errorf("%s: premium requires subscription: %w", op, models.ErrForbidden)
		}
		a.Title = in.Title
		a.Content = in.Content
		a.Preview = in.Preview
		a.IsPremium = in.IsPremium
	case viewer.IsStaff:
		a.Title = in.Title
		a.Content = in.Content
	default:
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	updated, err := s.repo.UpdateArticle(ctx, *a)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// Delete удаляет статью. Разрешено владельцу и суперпользователю.
func (s *Service) Delete(ctx context.Context, viewer models.Viewer, id int64) error {
	const op = "article.Delete"

	if !viewer.Authenticated {
		return fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	a, err := s.repo.GetArticle(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !isOwner(a, viewer) && !viewer.IsSuperuser {
		return fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	if err = s.repo.DeleteArticle(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListByOwner возвращает статьи пользователя для страницы профиля.
func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Article, error) {
	const op = "article.ListByOwner"
	articles, err := s.repo.ListArticlesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return articles, nil
}

func isOwner(a *models.Article, viewer models.Viewer) bool {
	return a.OwnerID != nil && *a.OwnerID == viewer.UserID
}
