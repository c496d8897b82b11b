package paymentprovider

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvgeniyKhan/post/internal/config"
	"github.com/EvgeniyKhan/post/internal/models"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.Stripe{
		StripeAPIKey:  "sk_test_123",
		StripeBaseURL: srv.URL,
		SuccessURL:    "http://127.0.0.1:8080/",
		Currency:      "rub",
		UnitAmount:    150000,
		ProductName:   "Подписка",
		StripeTimeout: timeout,
	}, newNoopLogger())
}

func TestClient_CheckoutFlow(t *testing.T) {
	var forms = map[string]string{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		forms[r.URL.Path] = r.Form.Encode()
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/products":
			_, _ = io.WriteString(w, `{"id":"prod_1","object":"product"}`)
		case "/v1/prices":
			_, _ = io.WriteString(w, `{"id":"price_1","object":"price"}`)
		case "/v1/checkout/sessions":
			_, _ = io.WriteString(w, `{"id":"cs_1","object":"checkout.session","url":"https://checkout.example/cs_1"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, time.Second)
	ctx := context.Background()

	productID, err := client.CreateProduct(ctx, 7, "subscription of user 1")
	require.NoError(t, err)
	assert.Equal(t, "prod_1", productID)

	priceID, err := client.CreatePrice(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, "price_1", priceID)

	sessionID, url, err := client.CreateCheckoutSession(ctx, priceID)
	require.NoError(t, err)
	assert.Equal(t, "cs_1", sessionID)
	assert.Equal(t, "https://checkout.example/cs_1", url)

	assert.Contains(t, forms["/v1/prices"], "unit_amount=150000")
	assert.Contains(t, forms["/v1/prices"], "product=prod_1")
	assert.Contains(t, forms["/v1/checkout/sessions"], "mode=payment")
	assert.Equal(t, int64(150000), client.UnitAmount())
}

func TestClient_GetPaymentStatus(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.PaymentStatus
	}{
		{
			name: "paid",
			body: `{"id":"cs_1","object":"checkout.session","payment_status":"paid","status":"complete"}`,
			want: models.PaymentSucceeded,
		},
		{
			name: "free",
			body: `{"id":"cs_1","object":"checkout.session","payment_status":"no_payment_required","status":"complete"}`,
			want: models.PaymentSucceeded,
		},
		{
			name: "open",
			body: `{"id":"cs_1","object":"checkout.session","payment_status":"unpaid","status":"open"}`,
			want: models.PaymentPending,
		},
		{
			name: "expired",
			body: `{"id":"cs_1","object":"checkout.session","payment_status":"unpaid","status":"expired"}`,
			want: models.PaymentFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/checkout/sessions/cs_1"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, tt.body)
			}, time.Second)

			got, err := client.GetPaymentStatus(context.Background(), "cs_1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_GatewayErrors(t *testing.T) {
	t.Run("error response", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"type":"invalid_request_error","message":"bad currency"}}`)
		}, time.Second)

		_, err := client.CreatePrice(context.Background(), "prod_1")
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrPaymentGateway)
	})

	t.Run("timeout", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = io.WriteString(w, `{}`)
		}, 20*time.Millisecond)

		_, err := client.GetPaymentStatus(context.Background(), "cs_1")
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrPaymentGateway)
	})
}
