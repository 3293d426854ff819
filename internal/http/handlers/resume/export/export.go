// Package export реализует экспорт резюме в PDF для премиум-пользователей.
// Доступ проверяет middleware PremiumOnly, сам экспорт пока не реализован.
package export

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resume-builder/internal/http/response"
)

// Handler обработчик GET /api/v1/resumes/{id}/export.
type Handler struct {
	log *slog.Logger
}

// New создаёт обработчик.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Экспорт резюме в PDF
// @Description Только для премиум-пользователей. Пока не реализован.
// @Tags Resumes
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID резюме"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.ErrorResponse "Нужен премиум"
// @Failure 501 {object} response.ErrorResponse "Экспорт не реализован"
// @Router /api/v1/resumes/{id}/export [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.resume.export"

	h.log.Info("pdf export requested",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("resume_id", chi.URLParam(r, "id")),
	)
	render.Status(r, http.StatusNotImplemented)
	render.JSON(w, r, response.Error("pdf export is not implemented yet"))
}
