// Package paymentprovider клиент платёжного провайдера Stripe:
// создание продукта, цены и checkout-сессии, проверка статуса оплаты
// и разбор webhook-уведомлений.
package paymentprovider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/EvgeniyKhan/post/internal/config"
	"github.com/EvgeniyKhan/post/internal/lib/metrics"
	"github.com/EvgeniyKhan/post/internal/models"
)

// Client обращается к Stripe с ключом и таймаутом из конфига.
type Client struct {
	api        *client.API
	currency   string
	unitAmount int64
	product    string
	successURL string
}

// NewClient создаёт клиент Stripe. Ключ не хранится в глобальном состоянии пакета stripe.
func NewClient(cfg config.Stripe, log *slog.Logger) *Client {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.StripeTimeout},
		URL:               stripe.String(cfg.StripeBaseURL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &leveledLogger{log: log.With(slog.String("component", "stripe"))},
	})

	return &Client{
		api: client.New(cfg.StripeAPIKey, &stripe.Backends{
			API:     backend,
			Connect: backend,
			Uploads: backend,
		}),
		currency:   cfg.Currency,
		unitAmount: cfg.UnitAmount,
		product:    cfg.ProductName,
		successURL: cfg.SuccessURL,
	}
}

// UnitAmount стоимость подписки в минимальных единицах валюты.
func (c *Client) UnitAmount() int64 {
	return c.unitAmount
}

// CreateProduct создаёт продукт под конкретную подписку.
func (c *Client) CreateProduct(ctx context.Context, subscriptionID int64, description string) (string, error) {
	const op = "paymentprovider.CreateProduct"
	start := time.Now()

	params := &stripe.ProductParams{
		Name:        stripe.String(c.product + " #" + strconv.FormatInt(subscriptionID, 10)),
		Description: stripe.String(description),
	}
	params.Context = ctx

	product, err := c.api.Products.New(params)
	metrics.RecordGatewayCall("create_product", err, time.Since(start).Seconds())
	if err != nil {
		return "", gatewayError(op, err)
	}
	return product.ID, nil
}

// CreatePrice создаёт разовую цену для продукта.
func (c *Client) CreatePrice(ctx context.Context, productID string) (string, error) {
	const op = "paymentprovider.CreatePrice"
	start := time.Now()

	params := &stripe.PriceParams{
		Currency:   stripe.String(c.currency),
		UnitAmount: stripe.Int64(c.unitAmount),
		Product:    stripe.String(productID),
	}
	params.Context = ctx

	price, err := c.api.Prices.New(params)
	metrics.RecordGatewayCall("create_price", err, time.Since(start).Seconds())
	if err != nil {
		return "", gatewayError(op, err)
	}
	return price.ID, nil
}

// CreateCheckoutSession создаёт сессию оплаты и возвращает её id и ссылку на оплату.
func (c *Client) CreateCheckoutSession(ctx context.Context, priceID string) (string, string, error) {
	const op = "paymentprovider.CreateCheckoutSession"
	start := time.Now()

	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(c.successURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
	}
	params.Context = ctx

	session, err := c.api.CheckoutSessions.New(params)
	metrics.RecordGatewayCall("create_checkout_session", err, time.Since(start).Seconds())
	if err != nil {
		return "", "", gatewayError(op, err)
	}
	return session.ID, session.URL, nil
}

// GetPaymentStatus запрашивает текущий статус оплаты сессии.
func (c *Client) GetPaymentStatus(ctx context.Context, sessionID string) (models.PaymentStatus, error) {
	const op = "paymentprovider.GetPaymentStatus"
	start := time.Now()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := c.api.CheckoutSessions.Get(sessionID, params)
	metrics.RecordGatewayCall("get_payment_status", err, time.Since(start).Seconds())
	if err != nil {
		return "", gatewayError(op, err)
	}
	return sessionStatus(session), nil
}

func sessionStatus(session *stripe.CheckoutSession) models.PaymentStatus {
	switch {
	case session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		session.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return models.PaymentSucceeded
	case session.Status == stripe.CheckoutSessionStatusExpired:
		return models.PaymentFailed
	default:
		return models.PaymentPending
	}
}

func gatewayError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, models.ErrPaymentGateway, err)
}
