package read

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/resume-builder/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resume-builder/internal/models"
	"github.com/magabrotheeeer/resume-builder/internal/services/resume"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Get(ctx context.Context, id, requesterID string) (*models.Resume, error) {
	args := m.Called(ctx, id, requesterID)
	res, _ := args.Get(0).(*models.Resume)
	return res, args.Error(1)
}

func TestReadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	const id = "7f0c1d6e-5a5b-4b44-9f3c-2f6c0c3f7a11"

	tests := []struct {
		name           string
		id             string
		userID         string
		setupMock      func(*MockService)
		expectedStatus int
	}{
		{
			name:           "malformed id",
			id:             "abc",
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "public resume anonymously",
			id:   id,
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, id, "").Return(&models.Resume{ID: id, IsPublic: true}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "owner reads private resume",
			id:     id,
			userID: "u1",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, id, "u1").Return(&models.Resume{ID: id, UserID: "u1"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "hidden resume",
			id:     id,
			userID: "u2",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, id, "u2").
					Return(nil, fmt.Errorf("resume.Get: %w", resume.ErrResumeNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "repository error",
			id:   id,
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, id, "").Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			r := chi.NewRouter()
			r.Get("/api/v1/resumes/{id}", New(logger, svc).ServeHTTP)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/"+tt.id, nil)
			if tt.userID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, tt.userID))
			}
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
