// Package subscription адаптер хранилища подписок: поиск активной и последней
// подписки, создание и смена статуса по внешнему идентификатору.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/resume-builder/internal/models"
	"github.com/magabrotheeeer/resume-builder/internal/storage/repository"
)

var (
	// ErrSubscriptionNotFound ни одна строка не совпала с внешним идентификатором.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrAlreadyActive у пользователя уже есть активная подписка.
	ErrAlreadyActive = errors.New("user already has an active subscription")
)

// Repository определяет методы хранилища подписок.
type Repository interface {
	GetActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	InsertSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, externalID string, status models.SubscriptionStatus,
		cancelAtPeriodEnd bool, updatedAt time.Time) (int, error)
	GetLatestSubscription(ctx context.Context, userID string) (*models.Subscription, error)
}

// Store операции над подписками.
type Store struct {
	repo Repository
	now  func() time.Time
}

// NewStore создаёт Store поверх репозитория.
func NewStore(repo Repository) *Store {
	return &Store{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// FindActive возвращает активную подписку пользователя или nil.
func (s *Store) FindActive(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "subscription.FindActive"
	sub, err := s.repo.GetActiveSubscription(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// Create вставляет активную подписку с периодом от текущего момента.
// Вызывающий код должен сначала убедиться, что активной подписки нет;
// гонку двух вставок закрывает уникальный индекс, она возвращается как ErrAlreadyActive.
func (s *Store) Create(ctx context.Context, userID string, planType models.PlanType,
	period models.PlanPeriod, externalID string) (*models.Subscription, error) {
	const op = "subscription.Create"

	start := s.now()
	end, err := period.PeriodEnd(start)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub, err := s.repo.InsertSubscription(ctx, models.Subscription{
		UserID:                 userID,
		Status:                 models.StatusActive,
		PlanType:               planType,
		PlanPeriod:             period,
		CurrentPeriodStart:     start,
		CurrentPeriodEnd:       end,
		ExternalSubscriptionID: externalID,
		CancelAtPeriodEnd:      false,
		CreatedAt:              start,
		UpdatedAt:              start,
	})
	if errors.Is(err, repository.ErrActiveSubscriptionExists) {
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyActive)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// UpdateStatus меняет статус всех строк с данным внешним идентификатором.
func (s *Store) UpdateStatus(ctx context.Context, externalID string, status models.SubscriptionStatus,
	cancelAtPeriodEnd bool) error {
	const op = "subscription.UpdateStatus"
	n, err := s.repo.UpdateSubscriptionStatus(ctx, externalID, status, cancelAtPeriodEnd, s.now())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrSubscriptionNotFound)
	}
	return nil
}

// Latest возвращает последнюю подписку пользователя в любом статусе или nil.
func (s *Store) Latest(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "subscription.Latest"
	sub, err := s.repo.GetLatestSubscription(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}
