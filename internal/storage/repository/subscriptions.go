package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/EvgeniyKhan/post/internal/models"
)

const subscriptionColumns = `id, content_id, product_id, price_id, payment_date, payment_url,
	price, is_subscribed, user_id`

func scanSubscription(row scanner) (*models.Subscription, error) {
	var sub models.Subscription
	var user sql.NullInt64
	if err := row.Scan(&sub.ID, &sub.ContentID, &sub.ProductID, &sub.PriceID, &sub.PaymentDate,
		&sub.PaymentURL, &sub.Price, &sub.IsSubscribed, &user); err != nil {
		return nil, err
	}
	sub.UserID = nullableID(user)
	return &sub, nil
}

// CreateSubscription создаёт неоплаченную подписку пользователя.
func (s *Storage) CreateSubscription(ctx context.Context, userID, price int64, paymentDate time.Time) (int64, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var id int64
	query := `INSERT INTO subscriptions (payment_date, price, is_subscribed, user_id)
			  VALUES ($1, $2, FALSE, $3)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query, paymentDate, price, userID).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetSubscription возвращает подписку по id.
func (s *Storage) GetSubscription(ctx context.Context, id int64) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	sub, err := scanSubscription(s.DB.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return sub, nil
}

// AttachCheckout в одной транзакции сохраняет данные платежа в подписке
// и привязывает подписку к пользователю.
func (s *Storage) AttachCheckout(ctx context.Context, subscriptionID, userID int64, checkout models.Checkout) error {
	const op = "storage.AttachCheckout"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE subscriptions
			SET product_id = $1, price_id = $2, content_id = $3, payment_url = $4
			WHERE id = $5`,
			checkout.ProductID, checkout.PriceID, checkout.SessionID, checkout.PaymentURL, subscriptionID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return models.ErrNotFound
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE users SET subscription_id = $1 WHERE id = $2`, subscriptionID, userID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return models.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ConfirmBySession помечает подписку с данной checkout-сессией оплаченной.
// Повторный вызов ничего не меняет, дата оплаты ставится только первый раз.
func (s *Storage) ConfirmBySession(ctx context.Context, sessionID string, paidAt time.Time) (*models.Subscription, error) {
	const op = "storage.ConfirmBySession"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if sessionID == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	query := `UPDATE subscriptions
			  SET payment_date = CASE WHEN is_subscribed THEN payment_date ELSE $2 END,
			      is_subscribed = TRUE
			  WHERE content_id = $1
			  RETURNING ` + subscriptionColumns
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, sessionID, paidAt))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return sub, nil
}

// ListPending возвращает неоплаченные подписки с созданной сессией,
// начатые не раньше since.
func (s *Storage) ListPending(ctx context.Context, since time.Time) ([]*models.Subscription, error) {
	const op = "storage.ListPending"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE is_subscribed = FALSE AND content_id <> '' AND payment_date >= $1
		ORDER BY id`, since)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
