// Package resumebuilder собирает HTTP API сервиса: вебхуки платёжного провайдера,
// премиум-статус, авторизацию и работу с резюме.
package resumebuilder

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/resume-builder/internal/config"
	"github.com/magabrotheeeer/resume-builder/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/resume-builder/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/resume-builder/internal/http/handlers/health"
	"github.com/magabrotheeeer/resume-builder/internal/http/handlers/premium/activate"
	"github.com/magabrotheeeer/resume-builder/internal/http/handlers/premium/check"
	"github.com/magabrotheeeer/resume-builder/internal/http/handlers/premium/status"
	"github.com/magabrotheeeer/resume-builder/internal/http/handlers/resume/export"
	"github.com/magabrotheeeer/resume-builder/internal/http/handlers/resume/generate"
	"github.com/magabrotheeeer/resume-builder/internal/http/handlers/resume/list"
	"github.com/magabrotheeeer/resume-builder/internal/http/handlers/resume/read"
	"github.com/magabrotheeeer/resume-builder/internal/http/handlers/resume/save"
	"github.com/magabrotheeeer/resume-builder/internal/http/handlers/webhook/checkwebhook"
	"github.com/magabrotheeeer/resume-builder/internal/http/handlers/webhook/gumroad"
	"github.com/magabrotheeeer/resume-builder/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resume-builder/internal/services/auth"
	"github.com/magabrotheeeer/resume-builder/internal/services/premium"
	"github.com/magabrotheeeer/resume-builder/internal/services/resume"
	"github.com/magabrotheeeer/resume-builder/internal/services/webhook"
	"github.com/magabrotheeeer/resume-builder/internal/webhooklog"
)

// Services зависимости маршрутов.
type Services struct {
	Auth       *auth.Service
	Premium    *premium.Service
	Resume     *resume.Service
	Dispatcher *webhook.Dispatcher
	Webhooks   webhooklog.Log // тестовые запросы к /check-webhook
	Deliveries webhooklog.Log // настоящие доставки провайдера
	Health     health.Checker
	Gatherer   prometheus.Gatherer
}

// generateLimiter общий лимит на генерацию резюме: запрос к модели дорогой.
func generateLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(2), 5)
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/health", health.New(logger, s.Health).ServeHTTP)

	// Вебхук провайдера: без авторизации, подлинность проверяется подписью
	r.Post("/api/webhooks/gumroad", gumroad.New(logger, s.Dispatcher, s.Deliveries).ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, s.Auth).ServeHTTP)

		// Отладка и поддержка
		checkWebhook := checkwebhook.New(logger, s.Webhooks, s.Deliveries, cfg.Gumroad, cfg.Env)
		r.Get("/check-webhook", checkWebhook.ServeHTTP)
		r.Post("/check-webhook", checkWebhook.ServeHTTP)
		r.Get("/premium/check", check.New(logger, s.Premium).ServeHTTP)

		r.With(middlewarectx.RateLimitMiddleware(generateLimiter(), logger)).
			Post("/resumes/generate", generate.New(logger, s.Resume).ServeHTTP)
		r.With(middlewarectx.OptionalJWTMiddleware(s.Auth, logger)).
			Get("/resumes/{id}", read.New(logger, s.Resume).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Get("/premium", status.New(logger, s.Premium).ServeHTTP)
			r.Post("/premium/activate", activate.New(logger, s.Premium, cfg.Env).ServeHTTP)
			r.Post("/resumes", save.New(logger, s.Resume).ServeHTTP)
			r.Get("/resumes", list.New(logger, s.Resume).ServeHTTP)
			r.With(middlewarectx.PremiumOnly(s.Premium, logger)).
				Get("/resumes/{id}/export", export.New(logger).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
