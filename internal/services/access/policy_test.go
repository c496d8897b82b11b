package access

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

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

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) GetPaymentStatus(ctx context.Context, sessionID string) (models.PaymentStatus, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(models.PaymentStatus), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func ptr(v int64) *int64 { return &v }

func TestPolicy_CanView(t *testing.T) {
	ctx := context.Background()
	regular := &models.Article{ID: 1, IsPremium: false}
	premium := &models.Article{ID: 2, IsPremium: true}
	member := models.Viewer{UserID: 5, Authenticated: true}

	tests := []struct {
		name    string
		article *models.Article
		viewer  models.Viewer
		setup   func(r *RepoMock, g *GatewayMock)
		want    bool
	}{
		{
			name:    "regular article for anonymous",
			article: regular,
			viewer:  models.Anonymous(),
			want:    true,
		},
		{
			name:    "premium article for anonymous",
			article: premium,
			viewer:  models.Anonymous(),
			want:    false,
		},
		{
			name:    "premium article for superuser",
			article: premium,
			viewer:  models.Viewer{UserID: 1, Authenticated: true, IsSuperuser: true},
			want:    true,
		},
		{
			name:    "user without subscription",
			article: premium,
			viewer:  member,
			setup: func(r *RepoMock, _ *GatewayMock) {
				r.On("GetUser", ctx, int64(5)).Return(&models.User{ID: 5}, nil)
			},
			want: false,
		},
		{
			name:    "subscription without session",
			article: premium,
			viewer:  member,
			setup: func(r *RepoMock, _ *GatewayMock) {
				r.On("GetUser", ctx, int64(5)).Return(&models.User{ID: 5, SubscriptionID: ptr(9)}, nil)
				r.On("GetSubscription", ctx, int64(9)).Return(&models.Subscription{ID: 9}, nil)
			},
			want: false,
		},
		{
			name:    "paid subscription",
			article: premium,
			viewer:  member,
			setup: func(r *RepoMock, g *GatewayMock) {
				r.On("GetUser", ctx, int64(5)).Return(&models.User{ID: 5, SubscriptionID: ptr(9)}, nil)
				r.On("GetSubscription", ctx, int64(9)).Return(&models.Subscription{ID: 9, ContentID: "sess1"}, nil)
				g.On("GetPaymentStatus", ctx, "sess1").Return(models.PaymentSucceeded, nil)
			},
			want: true,
		},
		{
			name:    "pending payment",
			article: premium,
			viewer:  member,
			setup: func(r *RepoMock, g *GatewayMock) {
				r.On("GetUser", ctx, int64(5)).Return(&models.User{ID: 5, SubscriptionID: ptr(9)}, nil)
				r.On("GetSubscription", ctx, int64(9)).Return(&models.Subscription{ID: 9, ContentID: "sess1"}, nil)
				g.On("GetPaymentStatus", ctx, "sess1").Return(models.PaymentPending, nil)
			},
			want: false,
		},
		{
			name:    "gateway failure degrades to not subscribed",
			article: premium,
			viewer:  member,
			setup: func(r *RepoMock, g *GatewayMock) {
				r.On("GetUser", ctx, int64(5)).Return(&models.User{ID: 5, SubscriptionID: ptr(9)}, nil)
				r.On("GetSubscription", ctx, int64(9)).Return(&models.Subscription{ID: 9, ContentID: "sess1"}, nil)
				g.On("GetPaymentStatus", ctx, "sess1").Return(models.PaymentStatus(""), models.ErrPaymentGateway)
			},
			want: false,
		},
		{
			name:    "missing user",
			article: premium,
			viewer:  member,
			setup: func(r *RepoMock, _ *GatewayMock) {
				r.On("GetUser", ctx, int64(5)).Return(nil, errors.New("db down"))
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			gateway := new(GatewayMock)
			if tt.setup != nil {
				tt.setup(repo, gateway)
			}
			policy := NewPolicy(repo, gateway, newNoopLogger())

			assert.Equal(t, tt.want, policy.CanView(ctx, tt.article, tt.viewer))
			repo.AssertExpectations(t)
			gateway.AssertExpectations(t)
		})
	}
}

func TestPolicy_RegularArticleSkipsGateway(t *testing.T) {
	repo := new(RepoMock)
	gateway := new(GatewayMock)
	policy := NewPolicy(repo, gateway, newNoopLogger())

	ok := policy.CanView(context.Background(), &models.Article{}, models.Viewer{UserID: 3, Authenticated: true})

	assert.True(t, ok)
	repo.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	gateway.AssertNotCalled(t, "GetPaymentStatus", mock.Anything, mock.Anything)
}
