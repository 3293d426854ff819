// Package read реализует HTTP-обработчик получения резюме по ID.
//
// Публичное резюме доступно всем, приватное только владельцу. Для чужого
// приватного резюме ответ такой же, как для несуществующего.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/resume-builder/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resume-builder/internal/http/response"
	"github.com/magabrotheeeer/resume-builder/internal/lib/sl"
	"github.com/magabrotheeeer/resume-builder/internal/models"
	"github.com/magabrotheeeer/resume-builder/internal/services/resume"
)

// Service чтение резюме.
type Service interface {
	Get(ctx context.Context, id, requesterID string) (*models.Resume, error)
}

// Handler обработчик GET /api/v1/resumes/{id}.
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
// @Summary Получение резюме
// @Description Публичное резюме доступно всем, приватное только владельцу.
// @Tags Resumes
// @Produce  json
// @Param id path string true "ID резюме"
// @Success 200 {object} response.Response{data=models.Resume} "Резюме"
// @Failure 404 {object} response.ErrorResponse "Резюме не найдено"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/v1/resumes/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.resume.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		log.Warn("invalid resume id", slog.String("id", id))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("resume not found"))
		return
	}

	requesterID, _ := middlewarectx.UserIDFrom(r.Context())
	res, err := h.service.Get(r.Context(), id, requesterID)
	if errors.Is(err, resume.ErrResumeNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("resume not found"))
		return
	}
	if err != nil {
		log.Error("failed to read resume", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read resume"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(res))
}
