package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/EvgeniyKhan/post/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) GetSubscription(ctx context.Context, id int64) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) CreateSubscription(ctx context.Context, userID, price int64, paymentDate time.Time) (int64, error) {
	args := m.Called(ctx, userID, price, paymentDate)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) AttachCheckout(ctx context.Context, subscriptionID, userID int64, checkout models.Checkout) error {
	return m.Called(ctx, subscriptionID, userID, checkout).Error(0)
}

func (m *RepoMock) ConfirmBySession(ctx context.Context, sessionID string, paidAt time.Time) (*models.Subscription, error) {
	args := m.Called(ctx, sessionID, paidAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) ListPending(ctx context.Context, since time.Time) ([]*models.Subscription, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateProduct(ctx context.Context, subscriptionID int64, description string) (string, error) {
	args := m.Called(ctx, subscriptionID, description)
	return args.String(0), args.Error(1)
}

func (m *GatewayMock) CreatePrice(ctx context.Context, productID string) (string, error) {
	args := m.Called(ctx, productID)
	return args.String(0), args.Error(1)
}

func (m *GatewayMock) CreateCheckoutSession(ctx context.Context, priceID string) (string, string, error) {
	args := m.Called(ctx, priceID)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *GatewayMock) GetPaymentStatus(ctx context.Context, sessionID string) (models.PaymentStatus, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(models.PaymentStatus), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func ptr(v int64) *int64 { return &v }

var (
	ctx = context.Background()
	now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

func newTestService(repo *RepoMock, gateway *GatewayMock, cache *CacheMock) *Service {
	svc := NewService(repo, gateway, cache, 150000, newNoopLogger())
	svc.now = func() time.Time { return now }
	return svc
}

func TestService_Start(t *testing.T) {
	t.Run("new checkout", func(t *testing.T) {
		repo, gateway, cache := new(RepoMock), new(GatewayMock), new(CacheMock)
		repo.On("GetUser", ctx, int64(1)).Return(&models.User{ID: 1, PhoneNumber: "100"}, nil)
		repo.On("CreateSubscription", ctx, int64(1), int64(150000), now).Return(int64(10), nil)
		gateway.On("CreateProduct", ctx, int64(10), mock.AnythingOfType("string")).Return("prod_1", nil)
		gateway.On("CreatePrice", ctx, "prod_1").Return("price_1", nil)
		gateway.On("CreateCheckoutSession", ctx, "price_1").Return("sess1", "http://pay/1", nil)
		repo.On("AttachCheckout", ctx, int64(10), int64(1), models.Checkout{
			ProductID: "prod_1", PriceID: "price_1", SessionID: "sess1", PaymentURL: "http://pay/1",
		}).Return(nil)
		cache.On("Invalidate", ctx, "profile:1").Return(nil)

		url, err := newTestService(repo, gateway, cache).Start(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "http://pay/1", url)
		repo.AssertExpectations(t)
		gateway.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("already subscribed", func(t *testing.T) {
		repo, gateway := new(RepoMock), new(GatewayMock)
		repo.On("GetUser", ctx, int64(1)).Return(&models.User{ID: 1, SubscriptionID: ptr(3)}, nil)
		repo.On("GetSubscription", ctx, int64(3)).Return(&models.Subscription{ID: 3, ContentID: "old"}, nil)
		gateway.On("GetPaymentStatus", ctx, "old").Return(models.PaymentSucceeded, nil)

		_, err := newTestService(repo, gateway, new(CacheMock)).Start(ctx, 1)
		assert.ErrorIs(t, err, models.ErrAlreadySubscribed)
		repo.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("previous checkout expired", func(t *testing.T) {
		repo, gateway, cache := new(RepoMock), new(GatewayMock), new(CacheMock)
		repo.On("GetUser", ctx, int64(1)).Return(&models.User{ID: 1, SubscriptionID: ptr(3)}, nil)
		repo.On("GetSubscription", ctx, int64(3)).Return(&models.Subscription{ID: 3, ContentID: "old"}, nil)
		gateway.On("GetPaymentStatus", ctx, "old").Return(models.PaymentFailed, nil)
		repo.On("CreateSubscription", ctx, int64(1), int64(150000), now).Return(int64(11), nil)
		gateway.On("CreateProduct", ctx, int64(11), mock.Anything).Return("prod_2", nil)
		gateway.On("CreatePrice", ctx, "prod_2").Return("price_2", nil)
		gateway.On("CreateCheckoutSession", ctx, "price_2").Return("sess2", "https://pay/sess2", nil)
		repo.On("AttachCheckout", ctx, int64(11), int64(1), mock.Anything).Return(nil)
		cache.On("Invalidate", ctx, "profile:1").Return(errors.New("redis down"))

		url, err := newTestService(repo, gateway, cache).Start(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "https://pay/sess2", url)
	})

	t.Run("gateway failure leaves record unattached", func(t *testing.T) {
		repo, gateway := new(RepoMock), new(GatewayMock)
		repo.On("GetUser", ctx, int64(1)).Return(&models.User{ID: 1}, nil)
		repo.On("CreateSubscription", ctx, int64(1), int64(150000), now).Return(int64(12), nil)
		gateway.On("CreateProduct", ctx, int64(12), mock.Anything).Return("prod_3", nil)
		gateway.On("CreatePrice", ctx, "prod_3").
			Return("", errors.Join(models.ErrPaymentGateway, errors.New("timeout")))

		_, err := newTestService(repo, gateway, new(CacheMock)).Start(ctx, 1)
		assert.ErrorIs(t, err, models.ErrPaymentGateway)
		repo.AssertNotCalled(t, "AttachCheckout", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		gateway.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUser", ctx, int64(9)).Return(nil, models.ErrNotFound)

		_, err := newTestService(repo, new(GatewayMock), new(CacheMock)).Start(ctx, 9)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestService_Status(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(r *RepoMock, g *GatewayMock, c *CacheMock)
		want    models.PaymentStatus
		wantErr error
	}{
		{
			name: "no subscription",
			setup: func(r *RepoMock, _ *GatewayMock, _ *CacheMock) {
				r.On("GetUser", ctx, int64(1)).Return(&models.User{ID: 1}, nil)
			},
			wantErr: models.ErrNotFound,
		},
		{
			name: "pending",
			setup: func(r *RepoMock, g *GatewayMock, _ *CacheMock) {
				r.On("GetUser", ctx, int64(1)).Return(&models.User{ID: 1, SubscriptionID: ptr(3)}, nil)
				r.On("GetSubscription", ctx, int64(3)).Return(&models.Subscription{ID: 3, ContentID: "sess1"}, nil)
				g.On("GetPaymentStatus", ctx, "sess1").Return(models.PaymentPending, nil)
			},
			want: models.PaymentPending,
		},
		{
			name: "paid confirms subscription",
			setup: func(r *RepoMock, g *GatewayMock, c *CacheMock) {
				r.On("GetUser", ctx, int64(1)).Return(&models.User{ID: 1, SubscriptionID: ptr(3)}, nil)
				r.On("GetSubscription", ctx, int64(3)).Return(&models.Subscription{ID: 3, ContentID: "sess1"}, nil)
				g.On("GetPaymentStatus", ctx, "sess1").Return(models.PaymentSucceeded, nil)
				r.On("ConfirmBySession", ctx, "sess1", now).
					Return(&models.Subscription{ID: 3, ContentID: "sess1", IsSubscribed: true, UserID: ptr(1)}, nil)
				c.On("Invalidate", ctx, "profile:1").Return(nil)
			},
			want: models.PaymentSucceeded,
		},
		{
			name: "gateway error",
			setup: func(r *RepoMock, g *GatewayMock, _ *CacheMock) {
				r.On("GetUser", ctx, int64(1)).Return(&models.User{ID: 1, SubscriptionID: ptr(3)}, nil)
				r.On("GetSubscription", ctx, int64(3)).Return(&models.Subscription{ID: 3, ContentID: "sess1"}, nil)
				g.On("GetPaymentStatus", ctx, "sess1").Return(models.PaymentStatus(""), models.ErrPaymentGateway)
			},
			wantErr: models.ErrPaymentGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, gateway, cache := new(RepoMock), new(GatewayMock), new(CacheMock)
			tt.setup(repo, gateway, cache)

			got, err := newTestService(repo, gateway, cache).Status(ctx, 1)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestService_ConfirmBySession(t *testing.T) {
	repo, cache := new(RepoMock), new(CacheMock)
	repo.On("ConfirmBySession", ctx, "sess1", now).
		Return(&models.Subscription{ID: 3, IsSubscribed: true, UserID: ptr(1)}, nil)
	repo.On("ConfirmBySession", ctx, "missing", now).Return(nil, models.ErrNotFound)
	cache.On("Invalidate", ctx, "profile:1").Return(nil)
	svc := newTestService(repo, new(GatewayMock), cache)

	sub, err := svc.ConfirmBySession(ctx, "sess1")
	require.NoError(t, err)
	assert.True(t, sub.IsSubscribed)

	_, err = svc.ConfirmBySession(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestService_ListPending(t *testing.T) {
	repo := new(RepoMock)
	pending := []*models.Subscription{{ID: 1, ContentID: "sess1"}}
	repo.On("ListPending", ctx, now.Add(-24*time.Hour)).Return(pending, nil)

	got, err := newTestService(repo, new(GatewayMock), new(CacheMock)).ListPending(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, pending, got)
}

func TestService_Reconcile(t *testing.T) {
	check := models.PaymentCheck{SubscriptionID: 3, SessionID: "sess1"}

	t.Run("paid", func(t *testing.T) {
		repo, gateway, cache := new(RepoMock), new(GatewayMock), new(CacheMock)
		gateway.On("GetPaymentStatus", ctx, "sess1").Return(models.PaymentSucceeded, nil)
		repo.On("ConfirmBySession", ctx, "sess1", now).Return(&models.Subscription{ID: 3}, nil)

		status, err := newTestService(repo, gateway, cache).Reconcile(ctx, check)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentSucceeded, status)
		repo.AssertExpectations(t)
	})

	t.Run("expired is not confirmed", func(t *testing.T) {
		repo, gateway := new(RepoMock), new(GatewayMock)
		gateway.On("GetPaymentStatus", ctx, "sess1").Return(models.PaymentFailed, nil)

		status, err := newTestService(repo, gateway, new(CacheMock)).Reconcile(ctx, check)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentFailed, status)
		repo.AssertNotCalled(t, "ConfirmBySession", mock.Anything, mock.Anything, mock.Anything)
	})
}
