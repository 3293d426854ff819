// Package scheduler периодически находит отменённые подписки, у которых скоро
// заканчивается оплаченный период, и публикует напоминания для сервиса уведомлений.
// Состояние подписок не меняется: переходы выполняются только вебхуками.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/resume-builder/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/resume-builder/internal/lib/sl"
	"github.com/magabrotheeeer/resume-builder/internal/models"
)

// DefaultInterval период запуска проверки.
const DefaultInterval = 12 * time.Hour

// lead за сколько до конца периода отправляется напоминание.
const lead = 24 * time.Hour

// SubscriptionRepository поиск подписок по дате окончания.
type SubscriptionRepository interface {
	FindCanceledEndingBetween(ctx context.Context, from, to time.Time) ([]*models.Subscription, error)
}

// Publisher отправляет события в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Service планировщик напоминаний.
type Service struct {
	repo      SubscriptionRepository
	publisher Publisher
	interval  time.Duration
	log       *slog.Logger
	now       func() time.Time
}

// NewService создаёт планировщик. Неположительный interval заменяется DefaultInterval.
func NewService(repo SubscriptionRepository, publisher Publisher, interval time.Duration, log *slog.Logger) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		log:       log,
		now:       time.Now,
	}
}

// Run выполняет проверку сразу и затем каждые interval до отмены ctx.
func (s *Service) Run(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error("failed to send ending reminders", sl.Err(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.log.Error("failed to send ending reminders", sl.Err(err))
			}
		}
	}
}

// RunOnce публикует напоминания для подписок, заканчивающихся в окне
// [now+lead, now+lead+interval). Соседние запуски не пересекаются, поэтому
// каждая подписка получает не больше одного напоминания.
func (s *Service) RunOnce(ctx context.Context) (int, error) {
	const op = "scheduler.RunOnce"
	log := s.log.With(slog.String("op", op))

	from := s.now().Add(lead)
	subs, err := s.repo.FindCanceledEndingBetween(ctx, from, from.Add(s.interval))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(subs) == 0 {
		log.Debug("no subscriptions ending soon")
		return 0, nil
	}

	published := 0
	for _, sub := range subs {
		err := s.publisher.Publish(ctx, rabbitmq.RoutingSubscriptionEnding, models.SubscriptionEvent{
			Type:         models.EventSubscriptionEnding,
			UserID:       sub.UserID,
			ExternalID:   sub.ExternalSubscriptionID,
			Subscription: sub,
		})
		if err != nil {
			log.Error("failed to publish reminder", slog.String("subscription_id", sub.ID), sl.Err(err))
			continue
		}
		published++
	}
	log.Info("ending reminders published", slog.Int("found", len(subs)), slog.Int("published", published))
	return published, nil
}
