package paymentprovider

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/EvgeniyKhan/post/internal/models"
)

var (
	// ErrInvalidSignature подпись webhook отсутствует, не сошлась или устарела.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrInvalidEvent подпись верна, но тело не разбирается.
	ErrInvalidEvent = errors.New("invalid webhook event")
)

// WebhookVerifier проверяет подпись уведомлений Stripe секретом endpoint'а.
type WebhookVerifier struct {
	secret string
}

// NewWebhookVerifier создаёт проверку подписи webhook.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// PaidSession разбирает уведомление. Возвращает id сессии и true,
// если событие означает успешную оплату.
func (v *WebhookVerifier) PaidSession(payload []byte, signature string) (string, bool, error) {
	const op = "paymentprovider.PaidSession"

	// Читаются только id, status и payment_status, поэтому версия API
	// аккаунта может отличаться от версии stripe-go.
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return "", false, fmt.Errorf("%s: %w: %w", op, ErrInvalidSignature, err)
		}
		return "", false, fmt.Errorf("%s: %w: %w", op, ErrInvalidEvent, err)
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
	default:
		return "", false, nil
	}

	var session stripe.CheckoutSession
	if err = json.Unmarshal(event.Data.Raw, &session); err != nil {
		return "", false, fmt.Errorf("%s: %w: %w", op, ErrInvalidEvent, err)
	}
	return session.ID, sessionStatus(&session) == models.PaymentSucceeded, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}
