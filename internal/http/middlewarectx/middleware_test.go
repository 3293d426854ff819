package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/resume-builder/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resume-builder/internal/models"
)

type ValidatorMock struct {
	mock.Mock
}

func (m *ValidatorMock) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

type PremiumMock struct {
	mock.Mock
}

func (m *PremiumMock) IsPremium(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestJWTMiddleware(t *testing.T) {
	validatorMock := new(ValidatorMock)
	handlerCalled := false

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		userID, ok := middlewarectx.UserIDFrom(r.Context())
		assert.True(t, ok)
		assert.Equal(t, "u1", userID)
		assert.Equal(t, "user@example.com", r.Context().Value(middlewarectx.Email))
		w.WriteHeader(http.StatusOK)
	})

	mw := middlewarectx.JWTMiddleware(validatorMock, newNoopLogger())(nextHandler)

	tests := []struct {
		name           string
		authHeader     string
		mockUser       *models.User
		mockErr        error
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "missing Authorization header",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid Authorization header prefix",
			authHeader:     "Basic sometoken",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "token validation error",
			authHeader:     "Bearer token",
			mockErr:        errors.New("token is expired"),
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer validtoken",
			mockUser:       &models.User{ID: "u1", Email: "user@example.com"},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled = false
			validatorMock.ExpectedCalls = nil
			validatorMock.Calls = nil
			if tt.mockUser != nil || tt.mockErr != nil {
				validatorMock.On("ValidateToken", mock.Anything, strings.TrimPrefix(tt.authHeader, "Bearer ")).
					Return(tt.mockUser, tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodGet, "/somepath", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			mw.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			validatorMock.AssertExpectations(t)
		})
	}
}

func TestOptionalJWTMiddleware(t *testing.T) {
	validatorMock := new(ValidatorMock)
	validatorMock.On("ValidateToken", mock.Anything, "good").Return(&models.User{ID: "u1"}, nil)
	validatorMock.On("ValidateToken", mock.Anything, "bad").Return(nil, errors.New("expired"))

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middlewarectx.UserIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	mw := middlewarectx.OptionalJWTMiddleware(validatorMock, newNoopLogger())(next)

	for header, want := range map[string]string{"": "", "Bearer good": "u1", "Bearer bad": ""} {
		seen = "unset"
		req := httptest.NewRequest(http.MethodGet, "/resumes/1", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, header)
		assert.Equal(t, want, seen, header)
	}
}

func TestPremiumOnly(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		premium        bool
		mockErr        error
		wantStatusCode int
	}{
		{name: "no user in context", wantStatusCode: http.StatusUnauthorized},
		{name: "premium user", userID: "u1", premium: true, wantStatusCode: http.StatusOK},
		{name: "free user", userID: "u1", wantStatusCode: http.StatusPaymentRequired},
		{name: "store failure", userID: "u1", mockErr: errors.New("db down"), wantStatusCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := new(PremiumMock)
			if tt.userID != "" {
				checker.On("IsPremium", mock.Anything, tt.userID).Return(tt.premium, tt.mockErr).Once()
			}
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/export", nil)
			if tt.userID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, tt.userID))
			}
			rec := httptest.NewRecorder()

			middlewarectx.PremiumOnly(checker, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			checker.AssertExpectations(t)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0), 2)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := middlewarectx.RateLimitMiddleware(limiter, newNoopLogger())(next)

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
