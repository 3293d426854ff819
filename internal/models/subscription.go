// Package models содержит доменные структуры: подписку, пользователя,
// событие вебхука, резюме и сообщения об изменении подписки.
package models

import (
	"fmt"
	"time"
)

// SubscriptionStatus состояние записи подписки.
// active единственное нетерминальное состояние, остальные конечны для строки.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusEnded    SubscriptionStatus = "ended"
	StatusFailed   SubscriptionStatus = "failed"
)

// PlanType тип тарифа. Сейчас выдаётся только premium.
type PlanType string

const (
	PlanBasic   PlanType = "basic"
	PlanPremium PlanType = "premium"
)

// PlanPeriod период оплаты, от него зависит дата окончания.
type PlanPeriod string

const (
	PeriodMonthly PlanPeriod = "monthly"
	PeriodYearly  PlanPeriod = "yearly"
)

// PeriodEnd возвращает дату окончания периода, начавшегося в start.
func (p PlanPeriod) PeriodEnd(start time.Time) (time.Time, error) {
	switch p {
	case PeriodMonthly:
		return start.AddDate(0, 1, 0), nil
	case PeriodYearly:
		return start.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unknown plan period %q", p)
	}
}

// Subscription одна строка жизненного цикла покупки. У пользователя их может
// быть несколько (отмена и повторная подписка), но активной, не больше одной.
type Subscription struct {
	ID                     string             `json:"id"`
	UserID                 string             `json:"user_id"`
	Status                 SubscriptionStatus `json:"status"`
	PlanType               PlanType           `json:"plan_type"`
	PlanPeriod             PlanPeriod         `json:"plan_period"`
	CurrentPeriodStart     time.Time          `json:"current_period_start"`
	CurrentPeriodEnd       time.Time          `json:"current_period_end"`
	ExternalSubscriptionID string             `json:"external_subscription_id"`
	CancelAtPeriodEnd      bool               `json:"cancel_at_period_end"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

// IsActive сообщает, даёт ли запись премиум-статус.
func (s *Subscription) IsActive() bool {
	return s != nil && s.Status == StatusActive
}
