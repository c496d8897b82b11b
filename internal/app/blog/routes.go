// Package blog собирает HTTP-приложение блога: маршруты, сервисы и сервер.
package blog

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/EvgeniyKhan/post/internal/http/handlers/article/create"
	"github.com/EvgeniyKhan/post/internal/http/handlers/article/list"
	"github.com/EvgeniyKhan/post/internal/http/handlers/article/read"
	"github.com/EvgeniyKhan/post/internal/http/handlers/article/remove"
	"github.com/EvgeniyKhan/post/internal/http/handlers/article/update"
	"github.com/EvgeniyKhan/post/internal/http/handlers/auth/login"
	"github.com/EvgeniyKhan/post/internal/http/handlers/auth/logout"
	"github.com/EvgeniyKhan/post/internal/http/handlers/auth/profile"
	"github.com/EvgeniyKhan/post/internal/http/handlers/auth/profileupdate"
	"github.com/EvgeniyKhan/post/internal/http/handlers/auth/register"
	"github.com/EvgeniyKhan/post/internal/http/handlers/health"
	"github.com/EvgeniyKhan/post/internal/http/handlers/payment/webhook"
	"github.com/EvgeniyKhan/post/internal/http/handlers/subscription/status"
	"github.com/EvgeniyKhan/post/internal/http/handlers/subscription/subscribe"
	"github.com/EvgeniyKhan/post/internal/http/middlewarectx"
	"github.com/EvgeniyKhan/post/internal/models"
)

// AuthService объединяет сценарии учётных записей, нужные маршрутам.
type AuthService interface {
	middlewarectx.Authenticator
	register.Service
	logout.Service
	profile.ProfileService
	profileupdate.Service
	Login(ctx context.Context, phone, password string) (string, error)
}

// ArticleService объединяет сценарии работы со статьями.
type ArticleService interface {
	list.Service
	read.Service
	create.Service
	update.Service
	remove.Service
	profile.ArticleService
}

// SubscriptionService объединяет сценарии подписки.
type SubscriptionService interface {
	subscribe.Service
	status.Service
	ConfirmBySession(ctx context.Context, sessionID string) (*models.Subscription, error)
}

// Deps зависимости маршрутов.
type Deps struct {
	Auth          AuthService
	Articles      ArticleService
	Subscriptions SubscriptionService
	Webhook       webhook.Verifier
	Limiter       *rate.Limiter
	Health        map[string]health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Webhook endpoint (без аутентификации, проверяется подпись).
		// Вне общего лимита: доставки провайдера не должны получать 429 из-за клиентов.
		r.Post("/payments/webhook", webhook.New(logger, deps.Webhook, deps.Subscriptions).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(deps.Limiter, logger))

			// Открытые конечные точки
			r.Post("/register", register.New(logger, deps.Auth).ServeHTTP)
			r.Post("/login", login.New(logger, deps.Auth).ServeHTTP)

			// Чтение доступно анониму
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.OptionalJWTMiddleware(deps.Auth, logger))
				r.Get("/articles", list.New(logger, deps.Articles).ServeHTTP)
				r.Get("/articles/{id}", read.New(logger, deps.Articles).ServeHTTP)
			})

			// Группа с JWT аутентификацией
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.JWTMiddleware(deps.Auth, logger))
				r.Post("/articles", create.New(logger, deps.Articles).ServeHTTP)
				r.Put("/articles/{id}", update.New(logger, deps.Articles).ServeHTTP)
				r.Delete("/articles/{id}", remove.New(logger, deps.Articles).ServeHTTP)
				r.Post("/logout", logout.New(logger, deps.Auth).ServeHTTP)
				r.Get("/profile", profile.New(logger, deps.Auth, deps.Articles).ServeHTTP)
				r.Put("/profile", profileupdate.New(logger, deps.Auth).ServeHTTP)
				r.Post("/subscribe", subscribe.New(logger, deps.Subscriptions).ServeHTTP)
				r.Get("/subscribe/status", status.New(logger, deps.Subscriptions).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger, deps.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
