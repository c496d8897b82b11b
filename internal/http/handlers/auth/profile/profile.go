// Package profile реализует HTTP-обработчик страницы профиля:
// данные пользователя и его статьи.
package profile

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/EvgeniyKhan/post/internal/http/middlewarectx"
	"github.com/EvgeniyKhan/post/internal/http/response"
	"github.com/EvgeniyKhan/post/internal/lib/sl"
	"github.com/EvgeniyKhan/post/internal/models"
)

// ProfileService описывает получение профиля.
type ProfileService interface {
	Profile(ctx context.Context, userID int64) (*models.User, error)
}

// ArticleService описывает получение статей автора.
type ArticleService interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Article, error)
}

// Handler обрабатывает запрос профиля текущего пользователя.
type Handler struct {
	log      *slog.Logger
	profiles ProfileService
	articles ArticleService
}

// New создает новый Handler.
func New(log *slog.Logger, profiles ProfileService, articles ArticleService) *Handler {
	return &Handler{
		log:      log,
		profiles: profiles,
		articles: articles,
	}
}

// ServeHTTP godoc
// @Summary Профиль пользователя
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Профиль и статьи пользователя"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /profile [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.profile"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	viewer := middlewarectx.ViewerFrom(r.Context())

	user, err := h.profiles.Profile(r.Context(), viewer.UserID)
	if err != nil {
		log.Error("failed to get profile", slog.Int64("user_id", viewer.UserID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	articles, err := h.articles.ListByOwner(r.Context(), viewer.UserID)
	if err != nil {
		log.Error("failed to list user articles", slog.Int64("user_id", viewer.UserID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user":     user,
		"articles": articles,
	}))
}
