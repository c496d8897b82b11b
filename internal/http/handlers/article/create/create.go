// Package create реализует HTTP-обработчик публикации статьи.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/EvgeniyKhan/post/internal/http/middlewarectx"
	"github.com/EvgeniyKhan/post/internal/http/response"
	"github.com/EvgeniyKhan/post/internal/lib/sl"
	"github.com/EvgeniyKhan/post/internal/models"
)

// Service описывает интерфейс бизнес-логики создания статьи.
type Service interface {
	Create(ctx context.Context, viewer models.Viewer, in models.ArticleInput) (*models.Article, error)
}

// Handler обрабатывает HTTP-запросы на создание статьи.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать статью
// @Description Публикует статью от имени текущего пользователя. Премиальную статью может создать суперпользователь или подписчик.
// @Tags Articles
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.ArticleInput true "Данные статьи"
// @Success 201 {object} map[string]any "Статья создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нет права на премиальную статью"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /articles [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.ArticleInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	article, err := h.service.Create(r.Context(), middlewarectx.ViewerFrom(r.Context()), req)
	if err != nil {
		log.Error("failed to create article", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"article": article,
	}))
}
