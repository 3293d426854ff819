// Package check реализует эндпоинт поддержки: к какому пользователю относится
// email и есть ли у него активная подписка. Пользователи не создаются.
package check

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resume-builder/internal/http/response"
	"github.com/magabrotheeeer/resume-builder/internal/lib/sl"
	"github.com/magabrotheeeer/resume-builder/internal/services/premium"
)

// Service проверка email.
type Service interface {
	CheckEmail(ctx context.Context, email string) (premium.EmailCheck, error)
}

// Handler обработчик GET /api/v1/premium/check?email=.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Проверка премиума по email
// @Description Публичная проверка для поддержки. Не возвращает идентификаторы пользователя и подписки.
// @Tags Premium
// @Produce  json
// @Param email query string true "Email покупателя"
// @Success 200 {object} response.Response{data=premium.EmailCheck} "Результат проверки"
// @Failure 400 {object} response.ErrorResponse "Не передан email"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/v1/premium/check [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.premium.check"

	email := strings.TrimSpace(r.URL.Query().Get("email"))
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		sl.Email(email),
	)

	if email == "" {
		log.Warn("email query parameter missing")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("email query parameter is required"))
		return
	}

	res, err := h.service.CheckEmail(r.Context(), email)
	if err != nil {
		log.Error("failed to check email", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to check email"))
		return
	}

	log.Info("email checked", slog.Bool("resolved", res.Resolved), slog.Bool("premium", res.Premium))
	render.JSON(w, r, response.StatusOKWithData(res))
}
