// Package subscribe реализует HTTP-обработчик оформления подписки.
// В ответ возвращается ссылка на страницу оплаты провайдера.
package subscribe

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/EvgeniyKhan/post/internal/http/middlewarectx"
	"github.com/EvgeniyKhan/post/internal/http/response"
	"github.com/EvgeniyKhan/post/internal/lib/sl"
)

// Service описывает интерфейс оформления подписки.
type Service interface {
	Start(ctx context.Context, userID int64) (string, error)
}

// Handler обрабатывает HTTP-запросы на оформление подписки.
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
// @Summary Оформить подписку
// @Description Создает подписку и checkout-сессию у платежного провайдера
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Ссылка на оплату"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Подписка уже оплачена"
// @Failure 502 {object} response.ErrorResponse "Платежный провайдер недоступен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscribe [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.subscribe"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID := middlewarectx.ViewerFrom(r.Context()).UserID
	paymentURL, err := h.service.Start(r.Context(), userID)
	if err != nil {
		log.Error("failed to start subscription", slog.Int64("user_id", userID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("checkout created", slog.Int64("user_id", userID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payment_url": paymentURL,
	}))
}
