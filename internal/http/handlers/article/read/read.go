// Package read реализует HTTP-обработчик чтения статьи по ID.
//
// Каждое разрешённое чтение увеличивает счётчик просмотров,
// отказ в доступе возвращает 403 без изменения счётчика.
package read

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/EvgeniyKhan/post/internal/http/middlewarectx"
	"github.com/EvgeniyKhan/post/internal/http/response"
	"github.com/EvgeniyKhan/post/internal/lib/sl"
	"github.com/EvgeniyKhan/post/internal/models"
)

// Service описывает интерфейс бизнес-логики чтения статьи.
type Service interface {
	GetVisible(ctx context.Context, id int64, viewer models.Viewer) (*models.Article, error)
}

// Handler обрабатывает запросы на получение статьи по уникальному идентификатору.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить статью
// @Description Возвращает статью и засчитывает просмотр.
// @Tags Articles
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID статьи"
// @Success 200 {object} map[string]any "Статья"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 403 {object} response.ErrorResponse "Нет доступа к премиальной статье"
// @Failure 404 {object} response.ErrorResponse "Статья не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /articles/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	article, err := h.service.GetVisible(r.Context(), id, middlewarectx.ViewerFrom(r.Context()))
	if err != nil {
		log.Info("article is not readable", slog.Int64("id", id), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"article": article,
	}))
}
