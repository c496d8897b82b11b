// Package webhook принимает уведомления платежного провайдера об оплате.
//
// Подпись проверяется до любых изменений. Оплаченная сессия подтверждает
// подписку, прочие события подтверждаются ответом 200 без действий.
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/EvgeniyKhan/post/internal/http/response"
	"github.com/EvgeniyKhan/post/internal/lib/sl"
	"github.com/EvgeniyKhan/post/internal/models"
	"github.com/EvgeniyKhan/post/internal/paymentprovider"
)

// maxBodyBytes ограничение размера тела уведомления.
const maxBodyBytes = 65536

// signatureHeader заголовок с подписью уведомления.
const signatureHeader = "Stripe-Signature"

// Verifier проверяет подпись и извлекает оплаченную сессию.
type Verifier interface {
	PaidSession(payload []byte, signature string) (string, bool, error)
}

// Confirmer подтверждает подписку по идентификатору сессии.
type Confirmer interface {
	ConfirmBySession(ctx context.Context, sessionID string) (*models.Subscription, error)
}

// Handler обрабатывает уведомления провайдера.
type Handler struct {
	log      *slog.Logger
	verifier Verifier
	service  Confirmer
}

// New создает новый Handler.
func New(log *slog.Logger, verifier Verifier, service Confirmer) *Handler {
	return &Handler{
		log:      log,
		verifier: verifier,
		service:  service,
	}
}

// ServeHTTP godoc
// @Summary Уведомление об оплате
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param Stripe-Signature header string true "Подпись уведомления"
// @Success 200 {object} map[string]any "Уведомление принято"
// @Failure 400 {object} response.ErrorResponse "Некорректная подпись или тело"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	sessionID, paid, err := h.verifier.PaidSession(payload, r.Header.Get(signatureHeader))
	if err != nil {
		log.Warn("rejected webhook", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		if errors.Is(err, paymentprovider.ErrInvalidSignature) {
			render.JSON(w, r, response.Error("invalid signature"))
			return
		}
		render.JSON(w, r, response.Error("invalid event"))
		return
	}
	if !paid {
		render.JSON(w, r, response.StatusOKWithData(map[string]any{"confirmed": false}))
		return
	}

	sub, err := h.service.ConfirmBySession(r.Context(), sessionID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		log.Warn("webhook for unknown session", slog.String("session_id", sessionID))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{"confirmed": false}))
		return
	case err != nil:
		log.Error("failed to confirm subscription", slog.String("session_id", sessionID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("subscription paid", slog.Int64("subscription_id", sub.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"confirmed": true}))
}
