// Package generate реализует HTTP-обработчик генерации текста резюме.
//
// Handler валидирует данные формы и возвращает текст, сгенерированный языковой
// моделью, или локальный шаблонный вариант, если модель недоступна.
package generate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/resume-builder/internal/http/response"
	"github.com/magabrotheeeer/resume-builder/internal/lib/sl"
	"github.com/magabrotheeeer/resume-builder/internal/models"
)

// Service генерация текста резюме.
type Service interface {
	Generate(ctx context.Context, data models.ResumeFormData) models.GeneratedResume
}

// Handler обработчик POST /api/v1/resumes/generate.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Генерация резюме
// @Description Генерирует текст резюме через модель OpenAI или по шаблону, если модель недоступна.
// @Tags Resumes
// @Accept  json
// @Produce  json
// @Param request body models.ResumeFormData true "Данные анкеты"
// @Success 200 {object} models.GeneratedResume "Сгенерированное резюме"
// @Failure 400 {object} response.Response "Некорректный запрос"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Router /api/v1/resumes/generate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.resume.generate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.ResumeFormData
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res := h.service.Generate(r.Context(), req)
	log.Info("resume generated", slog.Bool("using_openai", res.UsingOpenAI))
	render.JSON(w, r, res)
}
