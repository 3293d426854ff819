package resumebuilder

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/resume-builder/internal/cache"
	"github.com/magabrotheeeer/resume-builder/internal/config"
	"github.com/magabrotheeeer/resume-builder/internal/lib/jwt"
	"github.com/magabrotheeeer/resume-builder/internal/lib/metrics"
	"github.com/magabrotheeeer/resume-builder/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/resume-builder/internal/lib/signature"
	"github.com/magabrotheeeer/resume-builder/internal/lib/sl"
	"github.com/magabrotheeeer/resume-builder/internal/migrations"
	"github.com/magabrotheeeer/resume-builder/internal/services/auth"
	"github.com/magabrotheeeer/resume-builder/internal/services/identity"
	"github.com/magabrotheeeer/resume-builder/internal/services/premium"
	"github.com/magabrotheeeer/resume-builder/internal/services/resume"
	"github.com/magabrotheeeer/resume-builder/internal/services/subscription"
	"github.com/magabrotheeeer/resume-builder/internal/services/webhook"
	"github.com/magabrotheeeer/resume-builder/internal/storage/repository"
	"github.com/magabrotheeeer/resume-builder/internal/textgen"
	"github.com/magabrotheeeer/resume-builder/internal/webhooklog"
)

// App HTTP-сервис конструктора резюме.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает хранилища, применяет миграции и собирает сервисы.
// Redis и RabbitMQ необязательны: без адреса соответствующие функции отключаются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	version, err := migrations.Run(db.DB, cfg.MigrationsPath)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("database schema is up to date", slog.Uint64("version", uint64(version)))
	app := &App{logger: logger, db: db}

	webhooks := webhooklog.Log(webhooklog.NewMemory(cfg.WebhookLogSize))
	deliveries := webhooklog.Log(webhooklog.NewMemory(cfg.WebhookLogSize))
	var resumeCache resume.Cache
	if cfg.AddressRedis != "" {
		app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, err
		}
		webhooks = webhooklog.NewRedis(app.cache, webhooklog.KeyTests, cfg.WebhookLogSize)
		deliveries = webhooklog.NewRedis(app.cache, webhooklog.KeyDeliveries, cfg.WebhookLogSize)
		resumeCache = app.cache
	} else {
		logger.Info("redis is not configured, webhook log is kept in memory")
	}

	var publisher webhook.Publisher
	if cfg.RabbitMQURL != "" {
		app.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, err
		}
		app.ch, err = rabbitmq.SetupChannel(app.conn, cfg.RabbitMQExchange, rabbitmq.GetNotificationQueues())
		if err != nil {
			app.close()
			return nil, err
		}
		publisher = rabbitmq.NewPublisher(app.ch, cfg.RabbitMQExchange)
	} else {
		logger.Info("rabbitmq is not configured, subscription notifications are disabled")
	}

	verifier := signature.NewVerifier(cfg.SigningSecret())
	if !verifier.Enabled() {
		logger.Warn("webhook signing secret is empty, signature verification is disabled")
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	resolver := identity.NewResolver(db, cfg.RelayEmailDomain, cfg.CreateMissingUsers, logger)
	store := subscription.NewStore(db)
	dispatcher := webhook.NewDispatcher(verifier, resolver, store, publisher, m, webhook.Plans{
		MonthlyProductID: cfg.MonthlyProductID,
		YearlyProductID:  cfg.YearlyProductID,
	}, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, Services{
		Auth:       auth.NewService(db, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)),
		Premium:    premium.NewService(store, resolver, logger),
		Resume:     resume.NewService(textgen.New(cfg.OpenAI), resumeCache, db, m, logger),
		Dispatcher: dispatcher,
		Webhooks:   webhooks,
		Deliveries: deliveries,
		Health:     db,
		Gatherer:   registry,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP + cfg.OpenAITimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
