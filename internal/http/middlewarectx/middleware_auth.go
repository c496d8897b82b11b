// Package middlewarectx содержит HTTP middleware для обработки и проверки JWT токенов.
//
// JWTMiddleware требует валидный токен в заголовке Authorization,
// OptionalJWTMiddleware пропускает анонимные запросы. В обоих случаях
// в контекст кладётся models.Viewer для дальнейшего использования в обработчиках.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/EvgeniyKhan/post/internal/http/response"
	"github.com/EvgeniyKhan/post/internal/lib/sl"
	"github.com/EvgeniyKhan/post/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// ViewerKey: ключ для models.Viewer в контексте
	ViewerKey Key = "viewer"
	// TokenKey: ключ для исходного токена в контексте
	TokenKey Key = "token"
)

// Authenticator описывает интерфейс сервиса для проверки JWT токена.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Viewer, error)
}

// ViewerFrom достаёт зрителя из контекста. Без middleware это аноним.
func ViewerFrom(ctx context.Context) models.Viewer {
	v, ok := ctx.Value(ViewerKey).(models.Viewer)
	if !ok {
		return models.Anonymous()
	}
	return v
}

// WithViewer кладёт зрителя в контекст.
func WithViewer(ctx context.Context, v models.Viewer) context.Context {
	return context.WithValue(ctx, ViewerKey, v)
}

// TokenFrom достаёт токен текущего запроса.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(TokenKey).(string)
	return token
}

// WithToken кладёт исходный токен в контекст.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}

// JWTMiddleware возвращает HTTP middleware, который требует JWT в заголовке Authorization.
func JWTMiddleware(auth Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return authMiddleware(auth, log, true)
}

// OptionalJWTMiddleware принимает запросы без токена как анонимные,
// но отклоняет запросы с невалидным токеном.
func OptionalJWTMiddleware(auth Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return authMiddleware(auth, log, false)
}

func authMiddleware(auth Authenticator, log *slog.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			authHeader := r.Header.Get("Authorization")

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if authHeader == "" && !required {
				next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), models.Anonymous())))
				return
			}
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			viewer, err := auth.Authenticate(r.Context(), tokenStr)
			if err != nil {
				log.Warn("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := WithViewer(r.Context(), viewer)
			ctx = WithToken(ctx, tokenStr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
