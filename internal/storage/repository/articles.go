package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/EvgeniyKhan/post/internal/models"
)

const articleColumns = `id, title, content, preview, views, created_at, owner_id, is_premium`

func scanArticle(row scanner) (*models.Article, error) {
	var a models.Article
	var owner sql.NullInt64
	if err := row.Scan(&a.ID, &a.Title, &a.Content, &a.Preview, &a.Views,
		&a.CreatedAt, &owner, &a.IsPremium); err != nil {
		return nil, err
	}
	a.OwnerID = nullableID(owner)
	return &a, nil
}

func (s *Storage) queryArticles(ctx context.Context, op, query string, args ...any) ([]*models.Article, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateArticle сохраняет статью и возвращает её вместе с id и датой создания.
func (s *Storage) CreateArticle(ctx context.Context, a models.Article) (*models.Article, error) {
	const op = "storage.CreateArticle"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO articles (title, content, preview, owner_id, is_premium)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING ` + articleColumns
	created, err := scanArticle(s.DB.QueryRowContext(ctx, query,
		a.Title, a.Content, a.Preview, a.OwnerID, a.IsPremium))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetArticle возвращает статью по id без изменения счётчика просмотров.
func (s *Storage) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	const op = "storage.GetArticle"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`
	a, err := scanArticle(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return a, nil
}

// ListArticles возвращает все статьи в порядке добавления.
func (s *Storage) ListArticles(ctx context.Context) ([]*models.Article, error) {
	const op = "storage.ListArticles"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	return s.queryArticles(ctx, op, `SELECT `+articleColumns+` FROM articles ORDER BY id`)
}

// ListPublicArticles возвращает только не премиальные статьи.
func (s *Storage) ListPublicArticles(ctx context.Context) ([]*models.Article, error) {
	const op = "storage.ListPublicArticles"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	return s.queryArticles(ctx, op,
		`SELECT `+articleColumns+` FROM articles WHERE is_premium = FALSE ORDER BY id`)
}

// ListArticlesByOwner возвращает статьи пользователя.
func (s *Storage) ListArticlesByOwner(ctx context.Context, ownerID int64) ([]*models.Article, error) {
	const op = "storage.ListArticlesByOwner"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	return s.queryArticles(ctx, op,
		`SELECT `+articleColumns+` FROM articles WHERE owner_id = $1 ORDER BY id`, ownerID)
}

// UpdateArticle перезаписывает редактируемые поля статьи.
// Просмотры, владелец и дата создания не меняются.
func (s *Storage) UpdateArticle(ctx context.Context, a models.Article) (*models.Article, error) {
	const op = "storage.UpdateArticle"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE articles
			  SET title = $1, content = $2, preview = $3, is_premium = $4
			  WHERE id = $5
			  RETURNING ` + articleColumns
	updated, err := scanArticle(s.DB.QueryRowContext(ctx, query,
		a.Title, a.Content, a.Preview, a.IsPremium, a.ID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return updated, nil
}

// DeleteArticle удаляет статью.
func (s *Storage) DeleteArticle(ctx context.Context, id int64) error {
	const op = "storage.DeleteArticle"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// IncrementViews атомарно увеличивает счётчик просмотров на единицу
// и возвращает статью с новым значением.
func (s *Storage) IncrementViews(ctx context.Context, id int64) (*models.Article, error) {
	const op = "storage.IncrementViews"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE articles SET views = views + 1 WHERE id = $1 RETURNING ` + articleColumns
	a, err := scanArticle(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return a, nil
}
