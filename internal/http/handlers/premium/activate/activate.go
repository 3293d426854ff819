// Package activate реализует ручную выдачу премиума текущему пользователю.
// Эндпоинт доступен только в окружениях local и dev.
package activate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resume-builder/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resume-builder/internal/http/response"
	"github.com/magabrotheeeer/resume-builder/internal/lib/sl"
	"github.com/magabrotheeeer/resume-builder/internal/models"
)

// Service выдача премиума.
type Service interface {
	ActivateDirect(ctx context.Context, userID string) (*models.Subscription, bool, error)
}

// Handler обработчик POST /api/v1/premium/activate.
type Handler struct {
	log     *slog.Logger
	service Service
	enabled bool
}

// New создаёт обработчик. Для окружений кроме local и dev обработчик отвечает 404.
func New(log *slog.Logger, service Service, env string) *Handler {
	return &Handler{
		log:     log,
		service: service,
		enabled: env == "local" || env == "dev",
	}
}

// ServeHTTP godoc
// @Summary Ручная активация премиума
// @Description Выдает текущему пользователю месячный премиум. Доступно только в local и dev.
// @Tags Premium
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Премиум активирован"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Недоступно в этом окружении"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/v1/premium/activate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.premium.activate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if !h.enabled {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("not found"))
		return
	}

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	sub, alreadyActive, err := h.service.ActivateDirect(r.Context(), userID)
	if err != nil {
		log.Error("failed to activate premium", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to activate premium"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscription":   sub,
		"already_active": alreadyActive,
	}))
}
