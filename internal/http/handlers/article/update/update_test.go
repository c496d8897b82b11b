package update

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/EvgeniyKhan/post/internal/http/middlewarectx"
	"github.com/EvgeniyKhan/post/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Update(ctx context.Context, viewer models.Viewer, id int64, in models.ArticleInput) (*models.Article, error) {
	args := m.Called(ctx, viewer, id, in)
	if res := args.Get(0); res != nil {
		return res.(*models.Article), args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestUpdateHandler(t *testing.T) {
	moderator := models.Viewer{UserID: 3, Authenticated: true, IsStaff: true}
	in := models.ArticleInput{Title: "new", Content: "new"}

	tests := []struct {
		name           string
		url            string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "updated",
			url:  "/articles/5",
			body: `{"title":"new","content":"new"}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, moderator, int64(5), in).
					Return(&models.Article{ID: 5, Title: "new", Content: "new"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"title":"new"`,
		},
		{
			name:           "bad id",
			url:            "/articles/x",
			body:           `{"title":"new","content":"new"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `failed to decode id from url`,
		},
		{
			name:           "title too long",
			url:            "/articles/5",
			body:           `{"title":"` + string(bytes.Repeat([]byte("a"), 101)) + `","content":"c"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Title must be at most 100 characters`,
		},
		{
			name: "not found",
			url:  "/articles/6",
			body: `{"title":"new","content":"new"}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, moderator, int64(6), in).
					Return(nil, fmt.Errorf("op: %w", models.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			r := chi.NewRouter()
			r.Method(http.MethodPut, "/articles/{id}", New(newNoopLogger(), svc))

			req := httptest.NewRequest(http.MethodPut, tt.url, bytes.NewBufferString(tt.body))
			req = req.WithContext(middlewarectx.WithViewer(req.Context(), moderator))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
