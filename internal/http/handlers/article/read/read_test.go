package read

import (
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

	"github.com/EvgeniyKhan/post/internal/models"
)

// MockService реализует интерфейс read.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) GetVisible(ctx context.Context, id int64, viewer models.Viewer) (*models.Article, error) {
	args := m.Called(ctx, id, viewer)
	if res := args.Get(0); res != nil {
		return res.(*models.Article), args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestReadHandler(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное чтение статьи",
			url:  "/articles/7",
			setupMock: func(m *MockService) {
				m.On("GetVisible", mock.Anything, int64(7), models.Anonymous()).
					Return(&models.Article{ID: 7, Title: "Go", Views: 3}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"views":3`,
		},
		{
			name:           "некорректный id в URL",
			url:            "/articles/abc",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"failed to decode id from url"}`,
		},
		{
			name: "премиальная статья без подписки",
			url:  "/articles/8",
			setupMock: func(m *MockService) {
				m.On("GetVisible", mock.Anything, int64(8), models.Anonymous()).
					Return(nil, fmt.Errorf("article.GetVisible: %w", models.ErrForbidden))
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"status":"Error","error":"forbidden"}`,
		},
		{
			name: "статья не найдена",
			url:  "/articles/9",
			setupMock: func(m *MockService) {
				m.On("GetVisible", mock.Anything, int64(9), models.Anonymous()).
					Return(nil, fmt.Errorf("storage.GetArticle: %w", models.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			r := chi.NewRouter()
			r.Method(http.MethodGet, "/articles/{id}", New(newNoopLogger(), svc))

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
