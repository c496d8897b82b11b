package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/EvgeniyKhan/post/internal/models"
)

const userColumns = `id, phone_number, password_hash, first_name, last_name, avatar,
	is_active, is_staff, is_superuser, subscription_id`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	var sub sql.NullInt64
	if err := row.Scan(&u.ID, &u.PhoneNumber, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Avatar, &u.IsActive, &u.IsStaff, &u.IsSuperuser, &sub); err != nil {
		return nil, err
	}
	u.SubscriptionID = nullableID(sub)
	return &u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его id.
// Занятый телефон возвращает models.ErrPhoneTaken.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (int64, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int64
	query := `INSERT INTO users (phone_number, password_hash, first_name, last_name, avatar,
			      is_active, is_staff, is_superuser)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		user.PhoneNumber, user.PasswordHash, user.FirstName, user.LastName, user.Avatar,
		user.IsActive, user.IsStaff, user.IsSuperuser).Scan(&newID); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, models.ErrPhoneTaken)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByPhone возвращает пользователя по номеру телефона.
func (s *Storage) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	const op = "storage.GetUserByPhone"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return u, nil
}

// GetUser возвращает пользователя по id.
func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return u, nil
}

// UpdateProfile меняет имя, фамилию и аватар.
func (s *Storage) UpdateProfile(ctx context.Context, id int64, in models.ProfileInput) (*models.User, error) {
	const op = "storage.UpdateProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET first_name = $1, last_name = $2, avatar = $3
			  WHERE id = $4
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, in.FirstName, in.LastName, in.Avatar, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return u, nil
}
