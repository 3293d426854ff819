// Package gumroad реализует HTTP-обработчик вебхуков платёжного провайдера.
//
// Handler читает тело application/x-www-form-urlencoded и заголовок подписи,
// сохраняет доставку в отладочный лог и передаёт её диспетчеру подписок.
// Классы ошибок диспетчера переводятся в HTTP-статусы: 400 для неполных данных,
// 401 для неверной подписи, 404 если покупатель не найден, 500 для ошибок хранилища.
package gumroad

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resume-builder/internal/http/response"
	"github.com/magabrotheeeer/resume-builder/internal/lib/sl"
	"github.com/magabrotheeeer/resume-builder/internal/models"
	"github.com/magabrotheeeer/resume-builder/internal/services/identity"
	"github.com/magabrotheeeer/resume-builder/internal/services/webhook"
)

// SignatureHeader заголовок с подписью тела.
const SignatureHeader = "X-Gumroad-Signature"

// MaxBodySize ограничение на размер тела вебхука и отладочных запросов.
const MaxBodySize = 1 << 20

// sensitiveHeaders не попадают в отладочный лог.
var sensitiveHeaders = map[string]bool{
	http.CanonicalHeaderKey(SignatureHeader): true,
	"Authorization":                          true,
	"Cookie":                                 true,
	"Proxy-Authorization":                    true,
	"X-Api-Key":                              true,
}

// Dispatcher обрабатывает доставку вебхука.
type Dispatcher interface {
	Handle(ctx context.Context, body, claimedSignature string) (webhook.Result, error)
}

// Recorder отладочный лог входящих доставок.
type Recorder interface {
	Record(ctx context.Context, entry models.WebhookLogEntry) error
}

// Handler обработчик вебхуков.
type Handler struct {
	log        *slog.Logger
	dispatcher Dispatcher
	recorder   Recorder
	now        func() time.Time
}

// New создаёт обработчик. recorder может быть nil.
func New(log *slog.Logger, dispatcher Dispatcher, recorder Recorder) *Handler {
	return &Handler{
		log:        log,
		dispatcher: dispatcher,
		recorder:   recorder,
		now:        time.Now,
	}
}

// ServeHTTP godoc
// @Summary Вебхук Gumroad
// @Description Принимает уведомление о продаже или подписке. Подлинность проверяется подписью.
// @Tags Webhooks
// @Accept  x-www-form-urlencoded
// @Produce  json
// @Param X-Gumroad-Signature header string false "HMAC-SHA256 подпись тела"
// @Success 200 {object} response.WebhookResponse "Событие обработано"
// @Failure 400 {object} response.WebhookResponse "Нет обязательных полей"
// @Failure 401 {object} response.WebhookResponse "Неверная подпись"
// @Failure 404 {object} response.WebhookResponse "Пользователь не найден"
// @Failure 413 {object} response.WebhookResponse "Тело запроса больше 1 МиБ"
// @Failure 500 {object} response.WebhookResponse "Внутренняя ошибка сервера"
// @Router /api/webhooks/gumroad [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhook.gumroad"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := ReadBody(w, r)
	if err != nil {
		status, msg := http.StatusBadRequest, "failed to read request body"
		if errors.Is(err, ErrBodyTooLarge) {
			status, msg = http.StatusRequestEntityTooLarge, "request body too large"
		}
		log.Warn("failed to read webhook body", sl.Err(err))
		render.Status(r, status)
		render.JSON(w, r, response.WebhookError(msg))
		return
	}

	h.record(r, string(body), log)

	res, err := h.dispatcher.Handle(r.Context(), string(body), r.Header.Get(SignatureHeader))
	if err != nil {
		status, msg := StatusFor(err)
		render.Status(r, status)
		render.JSON(w, r, response.WebhookError(msg))
		return
	}

	log.Debug("webhook acknowledged", slog.String("outcome", res.Outcome))
	render.JSON(w, r, response.WebhookOK())
}

func (h *Handler) record(r *http.Request, body string, log *slog.Logger) {
	if h.recorder == nil {
		return
	}
	entry := models.WebhookLogEntry{
		Timestamp: h.now().UTC(),
		Headers:   HeaderMap(r.Header),
		Body:      body,
	}
	if err := h.recorder.Record(r.Context(), entry); err != nil {
		log.Warn("failed to record webhook", sl.Err(err))
	}
}

// StatusFor переводит ошибку диспетчера в HTTP-статус и текст ответа.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, webhook.ErrValidation):
		return http.StatusBadRequest, "Missing required fields"
	case errors.Is(err, webhook.ErrAuth):
		return http.StatusUnauthorized, "Invalid signature"
	case errors.Is(err, webhook.ErrResolution) && errors.Is(err, identity.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, webhook.ErrResolution):
		return http.StatusInternalServerError, "Failed to resolve user"
	case errors.Is(err, webhook.ErrNotFound):
		return http.StatusInternalServerError, "Subscription not found"
	default:
		return http.StatusInternalServerError, "Failed to process webhook"
	}
}

// ErrBodyTooLarge тело запроса больше MaxBodySize.
var ErrBodyTooLarge = errors.New("request body too large")

// ReadBody читает тело целиком. Тело больше MaxBodySize не обрезается,
// а отклоняется с ErrBodyTooLarge.
func ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer r.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, ErrBodyTooLarge
	}
	return body, err
}

// HeaderMap берёт первое значение каждого заголовка, кроме подписи и учётных данных.
func HeaderMap(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for k, v := range header {
		if len(v) == 0 || sensitiveHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		out[k] = v[0]
	}
	return out
}
