package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/resume-builder/internal/models"
)

const subscriptionColumns = `id, user_id, status, plan_type, plan_period, current_period_start,
			      current_period_end, external_subscription_id, cancel_at_period_end, created_at, updated_at`

func scanSubscription(row scanner) (*models.Subscription, error) {
	var sub models.Subscription
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.Status, &sub.PlanType, &sub.PlanPeriod,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.ExternalSubscriptionID,
		&sub.CancelAtPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetActiveSubscription возвращает активную подписку пользователя или ErrNotFound.
func (s *Storage) GetActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "storage.GetActiveSubscription"

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_id = $1 AND status = 'active'
			  ORDER BY created_at DESC
			  LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// InsertSubscription вставляет подписку и возвращает сохранённую строку.
// Вторая активная подписка пользователя отклоняется индексом и возвращает ErrActiveSubscriptionExists.
func (s *Storage) InsertSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.InsertSubscription"

	query := `INSERT INTO subscriptions (user_id, status, plan_type, plan_period, current_period_start,
			      current_period_end, external_subscription_id, cancel_at_period_end, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			  RETURNING ` + subscriptionColumns
	created, err := scanSubscription(s.DB.QueryRowContext(ctx, query,
		sub.UserID, sub.Status, sub.PlanType, sub.PlanPeriod, sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd, sub.ExternalSubscriptionID, sub.CancelAtPeriodEnd, sub.CreatedAt))
	if violates(err, constraintOneActive) {
		return nil, fmt.Errorf("%s: %w", op, ErrActiveSubscriptionExists)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// UpdateSubscriptionStatus меняет статус всех подписок с данным внешним ID
// и возвращает количество изменённых строк.
func (s *Storage) UpdateSubscriptionStatus(ctx context.Context, externalID string, status models.SubscriptionStatus,
	cancelAtPeriodEnd bool, updatedAt time.Time) (int, error) {
	const op = "storage.UpdateSubscriptionStatus"

	query := `UPDATE subscriptions
			  SET status = $1, cancel_at_period_end = $2, updated_at = $3
			  WHERE external_subscription_id = $4`
	result, err := s.DB.ExecContext(ctx, query, status, cancelAtPeriodEnd, updatedAt, externalID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// GetLatestSubscription возвращает последнюю по created_at подписку пользователя в любом статусе.
func (s *Storage) GetLatestSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "storage.GetLatestSubscription"

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_id = $1
			  ORDER BY created_at DESC
			  LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// FindCanceledEndingBetween возвращает отменённые подписки, оплаченный период которых
// заканчивается в интервале [from, to).
func (s *Storage) FindCanceledEndingBetween(ctx context.Context, from, to time.Time) ([]*models.Subscription, error) {
	const op = "storage.FindCanceledEndingBetween"

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE status = 'canceled' AND cancel_at_period_end
			    AND current_period_end >= $1 AND current_period_end < $2
			  ORDER BY current_period_end`
	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var subs []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}
