// Package list реализует HTTP-обработчик списка статей, видимых текущему пользователю.
package list

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

// Service описывает интерфейс бизнес-логики списка статей.
type Service interface {
	ListVisible(ctx context.Context, viewer models.Viewer) ([]*models.Article, error)
}

// Handler обрабатывает запросы списка статей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список статей
// @Description Анонимный пользователь видит только обычные статьи, премиальные доступны суперпользователю и подписчикам.
// @Tags Articles
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Список статей"
// @Failure 401 {object} response.ErrorResponse "Невалидный токен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /articles [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	articles, err := h.service.ListVisible(r.Context(), middlewarectx.ViewerFrom(r.Context()))
	if err != nil {
		log.Error("failed to list articles", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Debug("articles listed", slog.Int("count", len(articles)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"articles": articles,
	}))
}
