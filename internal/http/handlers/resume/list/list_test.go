package list

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/resume-builder/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resume-builder/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, userID string, limit, offset int) ([]*models.Resume, error) {
	args := m.Called(ctx, userID, limit, offset)
	res, _ := args.Get(0).([]*models.Resume)
	return res, args.Error(1)
}

func TestListHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		url            string
		userID         string
		setupMock      func(*MockService)
		expectedStatus int
	}{
		{
			name:           "unauthenticated",
			url:            "/api/v1/resumes",
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "default paging",
			url:    "/api/v1/resumes",
			userID: "u1",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, "u1", defaultLimit, 0).
					Return([]*models.Resume{{ID: "r2"}, {ID: "r1"}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "limit out of range falls back to default",
			url:    "/api/v1/resumes?limit=1000&offset=-3",
			userID: "u1",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, "u1", defaultLimit, 0).Return([]*models.Resume{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "explicit paging",
			url:    "/api/v1/resumes?limit=5&offset=10",
			userID: "u1",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, "u1", 5, 10).Return([]*models.Resume{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "repository error",
			url:    "/api/v1/resumes",
			userID: "u1",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, "u1", defaultLimit, 0).Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.userID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, tt.userID))
			}
			rec := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
