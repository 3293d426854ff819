// Package premium отвечает на вопрос «есть ли у пользователя премиум» и
// отдаёт детали подписки. Результат не кешируется и считается на каждый вызов.
package premium

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/resume-builder/internal/models"
	"github.com/magabrotheeeer/resume-builder/internal/services/identity"
	"github.com/magabrotheeeer/resume-builder/internal/services/subscription"
)

// DirectActivationPrefix префикс внешнего ID подписок, выданных вручную.
const DirectActivationPrefix = "direct-activation-"

// Store операции с подписками, нужные сервису.
type Store interface {
	FindActive(ctx context.Context, userID string) (*models.Subscription, error)
	Latest(ctx context.Context, userID string) (*models.Subscription, error)
	Create(ctx context.Context, userID string, planType models.PlanType,
		period models.PlanPeriod, externalID string) (*models.Subscription, error)
}

// Resolver поиск пользователя без создания.
type Resolver interface {
	Lookup(ctx context.Context, req identity.Request) (identity.Result, error)
}

// Status ответ API статуса премиума.
type Status struct {
	Premium      bool                 `json:"premium"`
	Subscription *models.Subscription `json:"subscription"`
	Latest       *models.Subscription `json:"latest"`
}

// EmailCheck ответ проверки для поддержки. Эндпоинт публичный, поэтому
// идентификаторы пользователя и подписки в ответ не попадают.
type EmailCheck struct {
	Email      string            `json:"email"`
	Resolved   bool              `json:"resolved"`
	Strategy   string            `json:"strategy,omitempty"`
	Premium    bool              `json:"premium"`
	PlanPeriod models.PlanPeriod `json:"plan_period,omitempty"`
	PeriodEnd  *time.Time        `json:"current_period_end,omitempty"`
}

// Service сервис премиум-статуса.
type Service struct {
	store    Store
	resolver Resolver
	log      *slog.Logger
	now      func() time.Time
}

// NewService создаёт сервис премиум-статуса.
func NewService(store Store, resolver Resolver, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		log:      log,
		now:      time.Now,
	}
}

// IsPremium true, если у пользователя есть активная подписка.
func (s *Service) IsPremium(ctx context.Context, userID string) (bool, error) {
	sub, err := s.store.FindActive(ctx, userID)
	if err != nil {
		return false, err
	}
	return sub.IsActive(), nil
}

// SubscriptionDetails возвращает активную подписку или nil.
func (s *Service) SubscriptionDetails(ctx context.Context, userID string) (*models.Subscription, error) {
	return s.store.FindActive(ctx, userID)
}

// Status собирает статус для страницы пользователя: активную и последнюю подписку.
func (s *Service) Status(ctx context.Context, userID string) (Status, error) {
	const op = "premium.Status"
	active, err := s.store.FindActive(ctx, userID)
	if err != nil {
		return Status{}, fmt.Errorf("%s: %w", op, err)
	}
	latest, err := s.store.Latest(ctx, userID)
	if err != nil {
		return Status{}, fmt.Errorf("%s: %w", op, err)
	}
	return Status{Premium: active.IsActive(), Subscription: active, Latest: latest}, nil
}

// ActivateDirect выдаёт годовой премиум без оплаты. Если активная подписка уже есть,
// возвращает её и alreadyActive=true.
func (s *Service) ActivateDirect(ctx context.Context, userID string) (sub *models.Subscription, alreadyActive bool, err error) {
	const op = "premium.ActivateDirect"
	log := s.log.With(slog.String("op", op), slog.String("user_id", userID))

	active, err := s.store.FindActive(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if active != nil {
		return active, true, nil
	}

	externalID := DirectActivationPrefix + strconv.FormatInt(s.now().UnixMilli(), 10)
	created, err := s.store.Create(ctx, userID, models.PlanPremium, models.PeriodYearly, externalID)
	if errors.Is(err, subscription.ErrAlreadyActive) {
		active, err = s.store.FindActive(ctx, userID)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		return active, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("premium activated directly", slog.String("subscription_id", created.ID))
	return created, false, nil
}

// CheckEmail проверяет, к какому пользователю относится email и есть ли у него премиум.
// Пользователи не создаются.
func (s *Service) CheckEmail(ctx context.Context, email string) (EmailCheck, error) {
	const op = "premium.CheckEmail"
	check := EmailCheck{Email: identity.Normalize(email)}

	res, err := s.resolver.Lookup(ctx, identity.Request{Email: email})
	if errors.Is(err, identity.ErrUserNotFound) {
		return check, nil
	}
	if err != nil {
		return check, fmt.Errorf("%s: %w", op, err)
	}
	check.Resolved = true
	check.Strategy = res.Strategy

	active, err := s.store.FindActive(ctx, res.UserID)
	if err != nil {
		return check, fmt.Errorf("%s: %w", op, err)
	}
	check.Premium = active.IsActive()
	if check.Premium {
		end := active.CurrentPeriodEnd
		check.PlanPeriod = active.PlanPeriod
		check.PeriodEnd = &end
	}
	return check, nil
}
