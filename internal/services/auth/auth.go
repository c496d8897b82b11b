// Package auth регистрация, вход по телефону и паролю, выход и профиль пользователя.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator"
	"golang.org/x/crypto/bcrypt"

	"github.com/EvgeniyKhan/post/internal/cache"
	"github.com/EvgeniyKhan/post/internal/lib/jwt"
	"github.com/EvgeniyKhan/post/internal/lib/password"
	"github.com/EvgeniyKhan/post/internal/lib/sl"
	"github.com/EvgeniyKhan/post/internal/models"
)

const profileTTL = 5 * time.Minute

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его ID.
	CreateUser(ctx context.Context, user models.User) (int64, error)
	// GetUserByPhone возвращает пользователя по телефону.
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, in models.ProfileInput) (*models.User, error)
}

// Cache кеш профилей и список отозванных токенов.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Service отвечает за регистрацию, авторизацию и валидацию JWT.
type Service struct {
	users    UserRepository
	cache    Cache
	jwtMaker jwt.Maker
	validate *validator.Validate
	log      *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(users UserRepository, cache Cache, jwtMaker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		cache:    cache,
		jwtMaker: jwtMaker,
		validate: validator.New(),
		log:      log,
	}
}

// Register создает нового пользователя с хэшированием пароля.
func (s *Service) Register(ctx context.Context, in models.RegisterInput) (int64, error) {
	const op = "auth.Register"
	if err := s.validate.Struct(in); err != nil {
		return 0, fmt.Errorf("%s: %w: %w", op, models.ErrValidation, err)
	}

	hashed, err := password.GetHash(in.Password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return 0, fmt.Errorf("%s: %w: %w", op, models.ErrValidation, err)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	id, err := s.users.CreateUser(ctx, models.User{
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hashed,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// Login проверяет пароль пользователя и выпускает JWT.
func (s *Service) Login(ctx context.Context, phone, rawPassword string) (string, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByPhone(ctx, phone)
	if errors.Is(err, models.ErrNotFound) {
		return "", fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsActive {
		return "", fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}
	err = password.CompareHash(user.PasswordHash, rawPassword)
	if errors.Is(err, password.ErrMismatch) {
		return "", fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(jwt.Subject{
		UserID:      user.ID,
		Phone:       user.PhoneNumber,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// Authenticate проверяет токен и возвращает зрителя.
// Отозванный через Logout токен не принимается.
func (s *Service) Authenticate(ctx context.Context, token string) (models.Viewer, error) {
	const op = "auth.Authenticate"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return models.Anonymous(), fmt.Errorf("%s: %w: %w", op, models.ErrUnauthorized, err)
	}
	revoked, err := s.cache.IsRevoked(ctx, claims.ID)
	if err != nil {
		return models.Anonymous(), fmt.Errorf("%s: %w", op, err)
	}
	if revoked {
		return models.Anonymous(), fmt.Errorf("%s: token revoked: %w", op, models.ErrUnauthorized)
	}

	return models.Viewer{
		UserID:        claims.UserID,
		Phone:         claims.Phone,
		Authenticated: true,
		IsStaff:       claims.IsStaff,
		IsSuperuser:   claims.IsSuperuser,
	}, nil
}

// Logout отзывает токен до конца его срока действия.
func (s *Service) Logout(ctx context.Context, token string) error {
	const op = "auth.Logout"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, models.ErrUnauthorized, err)
	}
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err = s.cache.RevokeToken(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Profile возвращает пользователя, сначала из кеша.
func (s *Service) Profile(ctx context.Context, userID int64) (*models.User, error) {
	const op = "auth.Profile"
	key := cache.ProfileKey(userID)

	var cached models.User
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read profile cache", slog.String("op", op), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.cache.Set(ctx, key, user, profileTTL); err != nil {
		s.log.Warn("failed to cache profile", slog.String("op", op), sl.Err(err))
	}
	return user, nil
}

// UpdateProfile меняет имя, фамилию и аватар.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, in models.ProfileInput) (*models.User, error) {
	const op = "auth.UpdateProfile"
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrValidation, err)
	}

	user, err := s.users.UpdateProfile(ctx, userID, in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.cache.Invalidate(ctx, cache.ProfileKey(userID)); err != nil {
		s.log.Warn("failed to invalidate profile cache", slog.String("op", op), sl.Err(err))
	}
	return user, nil
}

// EnsureSuperuser создаёт суперпользователя, если телефон свободен.
// Возвращает false, если пользователь с таким телефоном уже есть.
func (s *Service) EnsureSuperuser(ctx context.Context, phone, rawPassword string) (bool, error) {
	const op = "auth.EnsureSuperuser"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	_, err = s.users.CreateUser(ctx, models.User{
		PhoneNumber:  phone,
		PasswordHash: hashed,
		FirstName:    "Admin",
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	})
	if errors.Is(err, models.ErrPhoneTaken) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}
