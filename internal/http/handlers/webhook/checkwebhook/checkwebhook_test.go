package checkwebhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/resume-builder/internal/config"
	"github.com/magabrotheeeer/resume-builder/internal/http/handlers/webhook/gumroad"
	"github.com/magabrotheeeer/resume-builder/internal/models"
	"github.com/magabrotheeeer/resume-builder/internal/services/webhook"
	"github.com/magabrotheeeer/resume-builder/internal/webhooklog"
)

type ackDispatcher struct{}

func (ackDispatcher) Handle(context.Context, string, string) (webhook.Result, error) {
	return webhook.Result{Outcome: webhook.OutcomeIgnored}, nil
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type captureResponse struct {
	Success        bool                     `json:"success"`
	RecentWebhooks []models.WebhookLogEntry `json:"recentWebhooks"`
}

// deliver прогоняет настоящую доставку через обработчик вебхука.
func deliver(t *testing.T, deliveries *webhooklog.Memory) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/gumroad",
		strings.NewReader("email=real%40buyer.com&full_name=Jane+Doe&sale_id=S1"))
	req.Header.Set(gumroad.SignatureHeader, "deadbeef")
	rec := httptest.NewRecorder()
	gumroad.New(newNoopLogger(), ackDispatcher{}, deliveries).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_Get(t *testing.T) {
	h := New(newNoopLogger(), webhooklog.NewMemory(2), nil, config.Gumroad{
		WebhookSecret:   "shh",
		YearlyProductID: "yearlyplan",
	}, "prod")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/check-webhook", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "shh")

	var got struct {
		Environment map[string]string `json:"environment"`
		WebhookURL  string            `json:"webhookUrl"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "set", got.Environment["GUMROAD_WEBHOOK_SECRET"])
	assert.Equal(t, "set", got.Environment["YEARLY_SUBSCRIPTION_PRODUCT_ID"])
	assert.Equal(t, "missing", got.Environment["MONTHLY_SUBSCRIPTION_PRODUCT_ID"])
	assert.Equal(t, webhookURLHint, got.WebhookURL)
}

func TestHandler_PostKeepsBoundedLog(t *testing.T) {
	h := New(newNoopLogger(), webhooklog.NewMemory(2), nil, config.Gumroad{}, "local")

	var got captureResponse
	for _, body := range []string{"first", "second", "third"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/check-webhook", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	}

	assert.True(t, got.Success)
	require.Len(t, got.RecentWebhooks, 2)
	assert.Equal(t, "third", got.RecentWebhooks[0].Body)
	assert.Equal(t, "second", got.RecentWebhooks[1].Body)
}

func TestHandler_PostDoesNotExposeDeliveries(t *testing.T) {
	deliveries := webhooklog.NewMemory(webhooklog.DefaultSize)
	deliver(t, deliveries)

	for _, env := range []string{"local", "prod"} {
		t.Run(env, func(t *testing.T) {
			h := New(newNoopLogger(), webhooklog.NewMemory(webhooklog.DefaultSize), deliveries, config.Gumroad{}, env)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/check-webhook", strings.NewReader("x=1")))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.NotContains(t, rec.Body.String(), "real%40buyer.com")
			assert.NotContains(t, rec.Body.String(), "deadbeef")

			var got captureResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			require.Len(t, got.RecentWebhooks, 1)
			assert.Equal(t, "x=1", got.RecentWebhooks[0].Body)
		})
	}
}

func TestHandler_GetDeliveriesOnlyInDevEnvs(t *testing.T) {
	deliveries := webhooklog.NewMemory(webhooklog.DefaultSize)
	deliver(t, deliveries)

	tests := []struct {
		env  string
		want bool
	}{
		{env: "local", want: true},
		{env: "dev", want: true},
		{env: "prod", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			h := New(newNoopLogger(), webhooklog.NewMemory(2), deliveries, config.Gumroad{}, tt.env)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/check-webhook", nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var got struct {
				RecentDeliveries []models.WebhookLogEntry `json:"recentDeliveries"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if !tt.want {
				assert.Empty(t, got.RecentDeliveries)
				return
			}
			require.Len(t, got.RecentDeliveries, 1)
			assert.NotContains(t, got.RecentDeliveries[0].Headers, gumroad.SignatureHeader)
		})
	}
}

func TestHandler_PostBodyTooLarge(t *testing.T) {
	tests := webhooklog.NewMemory(2)
	h := New(newNoopLogger(), tests, nil, config.Gumroad{}, "local")

	body := strings.Repeat("x", gumroad.MaxBodySize+1)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/check-webhook", strings.NewReader(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	recent, err := tests.Recent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := New(newNoopLogger(), webhooklog.NewMemory(2), nil, config.Gumroad{}, "local")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/check-webhook", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
