// Package checkwebhook реализует отладочный эндпоинт для настройки вебхуков.
//
// GET показывает, какие параметры интеграции заданы (без значений), и ожидаемый
// адрес вебхука. POST сохраняет сырой запрос в собственный журнал тестовых
// запросов и возвращает его последние записи. Настоящие доставки провайдера
// содержат данные покупателей и показываются только в окружениях local и dev.
package checkwebhook

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resume-builder/internal/config"
	"github.com/magabrotheeeer/resume-builder/internal/http/handlers/webhook/gumroad"
	"github.com/magabrotheeeer/resume-builder/internal/http/response"
	"github.com/magabrotheeeer/resume-builder/internal/lib/sl"
	"github.com/magabrotheeeer/resume-builder/internal/models"
)

const webhookURLHint = "https://<your-domain>/api/webhooks/gumroad"

// Reader чтение журнала.
type Reader interface {
	Recent(ctx context.Context) ([]models.WebhookLogEntry, error)
}

// Log журнал тестовых запросов.
type Log interface {
	Reader
	Record(ctx context.Context, entry models.WebhookLogEntry) error
}

// Handler отладочный обработчик.
type Handler struct {
	log            *slog.Logger
	tests          Log
	deliveries     Reader
	showDeliveries bool
	settings       config.Gumroad
	now            func() time.Time
}

// New создаёт обработчик. tests принимает только запросы к самому эндпоинту;
// deliveries (может быть nil) журнал настоящих доставок, он отдаётся в GET
// только при env local или dev.
func New(log *slog.Logger, tests Log, deliveries Reader, settings config.Gumroad, env string) *Handler {
	return &Handler{
		log:            log,
		tests:          tests,
		deliveries:     deliveries,
		showDeliveries: deliveries != nil && (env == "local" || env == "dev"),
		settings:       settings,
		now:            time.Now,
	}
}

// ServeHTTP godoc
// @Summary Отладка вебхуков
// @Description GET показывает настройки и последние тестовые запросы, POST записывает тестовый запрос.
// @Description Настоящие доставки провайдера видны только в local и dev.
// @Tags Webhooks
// @Accept  json
// @Produce  json
// @Success 200 {object} map[string]any "Настройки и последние запросы"
// @Failure 405 {object} response.ErrorResponse "Метод не поддерживается"
// @Failure 413 {object} response.ErrorResponse "Тело запроса больше 1 МиБ"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/v1/check-webhook [get]
// @Router /api/v1/check-webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.status(w, r)
	case http.MethodPost:
		h.capture(w, r)
	default:
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, response.Error("method not allowed"))
	}
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	webhookURL := h.settings.WebhookURL
	if webhookURL == "" {
		webhookURL = webhookURLHint
	}
	resp := map[string]any{
		"environment": map[string]string{
			"GUMROAD_APP_ID":                  presence(h.settings.AppID),
			"GUMROAD_APP_SECRET":              presence(h.settings.AppSecret),
			"GUMROAD_WEBHOOK_SECRET":          presence(h.settings.WebhookSecret),
			"GUMROAD_WEBHOOK_URL":             presence(h.settings.WebhookURL),
			"MONTHLY_SUBSCRIPTION_PRODUCT_ID": presence(h.settings.MonthlyProductID),
			"YEARLY_SUBSCRIPTION_PRODUCT_ID":  presence(h.settings.YearlyProductID),
		},
		"webhookUrl": webhookURL,
		"timestamp":  h.now().UTC(),
	}

	if h.showDeliveries {
		recent, err := h.deliveries.Recent(r.Context())
		if err != nil {
			h.log.Error("failed to read webhook deliveries", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to read webhook deliveries"))
			return
		}
		resp["recentDeliveries"] = recent
	}
	render.JSON(w, r, resp)
}

func (h *Handler) capture(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhook.checkwebhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := gumroad.ReadBody(w, r)
	if errors.Is(err, gumroad.ErrBodyTooLarge) {
		log.Warn("test webhook body too large")
		render.Status(r, http.StatusRequestEntityTooLarge)
		render.JSON(w, r, response.Error("request body too large"))
		return
	}
	if err != nil {
		log.Error("failed to read request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read request body"))
		return
	}

	entry := models.WebhookLogEntry{
		Timestamp: h.now().UTC(),
		Headers:   gumroad.HeaderMap(r.Header),
		Body:      string(body),
	}
	if err := h.tests.Record(r.Context(), entry); err != nil {
		log.Error("failed to record webhook", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to record webhook"))
		return
	}

	recent, err := h.tests.Recent(r.Context())
	if err != nil {
		log.Error("failed to read recent webhooks", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read recent webhooks"))
		return
	}

	log.Info("test webhook recorded", slog.Int("recent", len(recent)))
	render.JSON(w, r, map[string]any{
		"success":        true,
		"message":        "Webhook received and logged",
		"recentWebhooks": recent,
	})
}

func presence(v string) string {
	if v == "" {
		return "missing"
	}
	return "set"
}
