package gumroad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/resume-builder/internal/models"
	"github.com/magabrotheeeer/resume-builder/internal/services/identity"
	"github.com/magabrotheeeer/resume-builder/internal/services/webhook"
	"github.com/magabrotheeeer/resume-builder/internal/webhooklog"
)

type DispatcherMock struct {
	mock.Mock
}

func (m *DispatcherMock) Handle(ctx context.Context, body, claimedSignature string) (webhook.Result, error) {
	args := m.Called(ctx, body, claimedSignature)
	return args.Get(0).(webhook.Result), args.Error(1)
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, models.WebhookLogEntry) error {
	return errors.New("redis down")
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestHandler_ServeHTTP(t *testing.T) {
	const body = "resource_name=subscription&resource_action=created&subscription_id=S1&email=a%40b.com"

	tests := []struct {
		name     string
		result   webhook.Result
		err      error
		wantCode int
		wantBody map[string]any
	}{
		{
			name:     "created",
			result:   webhook.Result{Outcome: webhook.OutcomeCreated},
			wantCode: http.StatusOK,
			wantBody: map[string]any{"success": true},
		},
		{
			name:     "ignored event still acknowledged",
			result:   webhook.Result{Outcome: webhook.OutcomeIgnored},
			wantCode: http.StatusOK,
			wantBody: map[string]any{"success": true},
		},
		{
			name:     "missing fields",
			err:      fmt.Errorf("webhook.Handle: %w", webhook.ErrValidation),
			wantCode: http.StatusBadRequest,
			wantBody: map[string]any{"error": "Missing required fields"},
		},
		{
			name:     "bad signature",
			err:      fmt.Errorf("webhook.Handle: %w", webhook.ErrAuth),
			wantCode: http.StatusUnauthorized,
			wantBody: map[string]any{"error": "Invalid signature"},
		},
		{
			name:     "purchaser not resolvable",
			err:      fmt.Errorf("%w: %w", webhook.ErrResolution, identity.ErrUserNotFound),
			wantCode: http.StatusNotFound,
			wantBody: map[string]any{"error": "User not found"},
		},
		{
			name:     "identity listing failure",
			err:      fmt.Errorf("%w: %w", webhook.ErrResolution, identity.ErrLookup),
			wantCode: http.StatusInternalServerError,
			wantBody: map[string]any{"error": "Failed to resolve user"},
		},
		{
			name:     "store failure",
			err:      fmt.Errorf("%w: connection refused", webhook.ErrStore),
			wantCode: http.StatusInternalServerError,
			wantBody: map[string]any{"error": "Failed to process webhook"},
		},
		{
			name:     "unknown external id",
			err:      webhook.ErrNotFound,
			wantCode: http.StatusInternalServerError,
			wantBody: map[string]any{"error": "Subscription not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := new(DispatcherMock)
			dispatcher.On("Handle", mock.Anything, body, "sig").Return(tt.result, tt.err).Once()
			recorder := webhooklog.NewMemory(webhooklog.DefaultSize)

			h := New(newNoopLogger(), dispatcher, recorder)
			req := httptest.NewRequest(http.MethodPost, "/api/webhooks/gumroad", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set(SignatureHeader, "sig")
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantBody, got)
			dispatcher.AssertExpectations(t)

			recent, err := recorder.Recent(context.Background())
			require.NoError(t, err)
			require.Len(t, recent, 1)
			assert.Equal(t, body, recent[0].Body)
			assert.Equal(t, "application/x-www-form-urlencoded", recent[0].Headers["Content-Type"])
			assert.NotContains(t, recent[0].Headers, SignatureHeader)
		})
	}
}

func TestHandler_RecorderFailureDoesNotFailWebhook(t *testing.T) {
	dispatcher := new(DispatcherMock)
	dispatcher.On("Handle", mock.Anything, "a=b", "").Return(webhook.Result{Outcome: webhook.OutcomeIgnored}, nil)

	h := New(newNoopLogger(), dispatcher, failingRecorder{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/webhooks/gumroad", strings.NewReader("a=b")))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_OversizedBodyRejected(t *testing.T) {
	dispatcher := new(DispatcherMock)
	recorder := webhooklog.NewMemory(webhooklog.DefaultSize)
	h := New(newNoopLogger(), dispatcher, recorder)

	body := "email=a%40b.com&subscription_id=S1&pad=" + strings.Repeat("x", MaxBodySize)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/webhooks/gumroad", strings.NewReader(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	dispatcher.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything, mock.Anything)
	recent, err := recorder.Recent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestHandler_BodyAtLimitAccepted(t *testing.T) {
	body := strings.Repeat("a", MaxBodySize)
	dispatcher := new(DispatcherMock)
	dispatcher.On("Handle", mock.Anything, body, "").Return(webhook.Result{Outcome: webhook.OutcomeIgnored}, nil)

	rec := httptest.NewRecorder()
	New(newNoopLogger(), dispatcher, nil).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/webhooks/gumroad", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	dispatcher.AssertExpectations(t)
}

func TestHeaderMap(t *testing.T) {
	header := http.Header{}
	header.Add("X-A", "1")
	header.Add("X-A", "2")
	header["Empty"] = nil
	header.Set(SignatureHeader, "deadbeef")
	header.Set("Authorization", "Bearer token")
	header.Set("Cookie", "session=1")

	assert.Equal(t, map[string]string{"X-A": "1"}, HeaderMap(header))
}
