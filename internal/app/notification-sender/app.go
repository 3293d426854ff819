// Package notificationsender читает события подписок из RabbitMQ и отправляет
// покупателям письма о смене статуса. Здесь же работает планировщик напоминаний
// об окончании отменённых подписок.
package notificationsender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/resume-builder/internal/config"
	"github.com/magabrotheeeer/resume-builder/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/resume-builder/internal/lib/sl"
	"github.com/magabrotheeeer/resume-builder/internal/lib/smtp"
	"github.com/magabrotheeeer/resume-builder/internal/services/scheduler"
	"github.com/magabrotheeeer/resume-builder/internal/services/sender"
	"github.com/magabrotheeeer/resume-builder/internal/storage/repository"
)

// App потребитель очереди уведомлений.
type App struct {
	conn      *amqp.Connection
	ch        *amqp.Channel
	db        *repository.Storage
	sender    *sender.Service
	scheduler *scheduler.Service
	logger    *slog.Logger
}

// New подключается к базе и брокеру.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "notificationsender.New"
	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("%s: rabbitmq url is not configured", op)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQExchange, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, err
	}

	return &App{
		conn:      conn,
		ch:        ch,
		db:        db,
		sender:    sender.NewService(db, logger, smtp.NewTransport(cfg.SMTP, logger)),
		scheduler: scheduler.NewService(db, rabbitmq.NewPublisher(ch, cfg.RabbitMQExchange), cfg.ReminderInterval, logger),
		logger:    logger,
	}, nil
}

// Run потребляет очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.NotificationsQueue,
		rabbitmq.DefaultWorkers, a.sender.SendSubscriptionEvent)
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", rabbitmq.NotificationsQueue), sl.Err(err))
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.scheduler.Run(ctx)
	}()

	<-ctx.Done()
	<-done
	a.logger.Info("notification sender shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
	return nil
}
