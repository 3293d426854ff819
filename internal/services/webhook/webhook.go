// Package webhook обрабатывает вебхуки платёжного провайдера: проверяет подпись,
// находит пользователя и переводит подписку между состояниями.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/resume-builder/internal/lib/formdata"
	"github.com/magabrotheeeer/resume-builder/internal/lib/metrics"
	"github.com/magabrotheeeer/resume-builder/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/resume-builder/internal/lib/signature"
	"github.com/magabrotheeeer/resume-builder/internal/lib/sl"
	"github.com/magabrotheeeer/resume-builder/internal/models"
	"github.com/magabrotheeeer/resume-builder/internal/services/identity"
	"github.com/magabrotheeeer/resume-builder/internal/services/subscription"
)

// Классы ошибок диспетчера. HTTP-обработчик выбирает по ним код ответа.
var (
	ErrValidation = errors.New("missing required webhook fields")
	ErrAuth       = errors.New("invalid webhook signature")
	ErrResolution = errors.New("purchaser resolution failed")
	ErrStore      = errors.New("subscription store failure")
	ErrNotFound   = errors.New("subscription for external id not found")
)

// Исходы обработки для метрик и логов.
const (
	OutcomeCreated    = "created"
	OutcomeIdempotent = "idempotent"
	OutcomeUpdated    = "updated"
	OutcomeIgnored    = "ignored"
	OutcomeError      = "error"
)

// Resolver находит или создаёт пользователя по email покупателя.
type Resolver interface {
	Resolve(ctx context.Context, req identity.Request) (identity.Result, error)
}

// Store операции над подписками.
type Store interface {
	FindActive(ctx context.Context, userID string) (*models.Subscription, error)
	Create(ctx context.Context, userID string, planType models.PlanType,
		period models.PlanPeriod, externalID string) (*models.Subscription, error)
	UpdateStatus(ctx context.Context, externalID string, status models.SubscriptionStatus, cancelAtPeriodEnd bool) error
}

// Publisher отправляет события подписки в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Plans идентификаторы продуктов для определения периода.
type Plans struct {
	MonthlyProductID string
	YearlyProductID  string
}

// Result итог обработки одной доставки.
type Result struct {
	Outcome      string
	Event        models.WebhookEvent
	Subscription *models.Subscription
	Verification signature.Outcome
}

// Dispatcher машина состояний подписки, управляемая вебхуками.
type Dispatcher struct {
	verifier  *signature.Verifier
	resolver  Resolver
	store     Store
	publisher Publisher
	metrics   *metrics.Metrics
	plans     Plans
	log       *slog.Logger
}

// NewDispatcher создаёт диспетчер. publisher и m могут быть nil.
func NewDispatcher(verifier *signature.Verifier, resolver Resolver, store Store, publisher Publisher,
	m *metrics.Metrics, plans Plans, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		verifier:  verifier,
		resolver:  resolver,
		store:     store,
		publisher: publisher,
		metrics:   m,
		plans:     plans,
		log:       log,
	}
}

// Handle разбирает тело формы, проверяет подпись и применяет событие.
func (d *Dispatcher) Handle(ctx context.Context, body, claimedSignature string) (Result, error) {
	const op = "webhook.Handle"

	values, err := formdata.Parse(body)
	if err != nil {
		d.metrics.WebhookEvent("", "", OutcomeError)
		return Result{}, fmt.Errorf("%s: %w: %w", op, ErrValidation, err)
	}
	event := EventFromForm(values)
	log := d.log.With(
		slog.String("op", op),
		slog.String("resource", event.Resource),
		slog.String("action", event.Action),
		slog.String("subscription_id", event.SubscriptionID),
		slog.String("sale_id", event.SaleID),
		sl.Email(event.BuyerEmail()),
	)

	verification, err := d.verifier.Verify(values, claimedSignature)
	if err != nil {
		log.Warn("webhook signature rejected")
		d.metrics.WebhookEvent(event.Resource, event.Action, OutcomeError)
		return Result{Event: event, Verification: verification}, fmt.Errorf("%s: %w", op, ErrAuth)
	}
	if verification != signature.Verified {
		log.Debug("webhook signature not checked", slog.String("verification", string(verification)))
	}

	res, err := d.Dispatch(ctx, event)
	res.Verification = verification
	if errors.Is(err, ErrValidation) {
		log.Warn("webhook rejected", sl.Err(err))
		d.metrics.WebhookEvent(event.Resource, event.Action, OutcomeError)
		return res, fmt.Errorf("%s: %w", op, err)
	}
	if err != nil {
		log.Error("failed to process webhook", sl.Err(err))
		d.metrics.WebhookEvent(event.Resource, event.Action, OutcomeError)
		return res, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("webhook processed", slog.String("outcome", res.Outcome))
	d.metrics.WebhookEvent(event.Resource, event.Action, res.Outcome)
	return res, nil
}

// Dispatch применяет уже проверенное событие.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.WebhookEvent) (Result, error) {
	res := Result{Event: event}
	if strings.TrimSpace(event.BuyerEmail()) == "" || event.ExternalID() == "" {
		return res, ErrValidation
	}

	switch {
	case event.Action == models.ActionCreated &&
		(event.Resource == models.ResourceSubscription || event.Resource == models.ResourceSale):
		return d.created(ctx, event)
	case event.Resource == models.ResourceSubscription:
		switch event.Action {
		case models.ActionCancelled:
			return d.transition(ctx, event, models.StatusCanceled, true, rabbitmq.RoutingSubscriptionCanceled)
		case models.ActionEnded:
			return d.transition(ctx, event, models.StatusEnded, false, rabbitmq.RoutingSubscriptionEnded)
		case models.ActionFailed:
			return d.transition(ctx, event, models.StatusFailed, false, rabbitmq.RoutingSubscriptionFailed)
		}
	}
	// renewed и неизвестные события подтверждаются без изменений, чтобы провайдер не повторял доставку
	res.Outcome = OutcomeIgnored
	return res, nil
}

func (d *Dispatcher) created(ctx context.Context, event models.WebhookEvent) (Result, error) {
	res := Result{Event: event}

	user, err := d.resolver.Resolve(ctx, identity.Request{
		Email:          event.BuyerEmail(),
		AlternateEmail: event.AlternateEmail(),
		FullName:       event.FullName,
	})
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrResolution, err)
	}

	active, err := d.store.FindActive(ctx, user.UserID)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if active != nil {
		res.Outcome = OutcomeIdempotent
		res.Subscription = active
		return res, nil
	}

	period := ResolvePlanPeriod(event, d.plans)
	sub, err := d.store.Create(ctx, user.UserID, models.PlanPremium, period, event.ExternalID())
	if errors.Is(err, subscription.ErrAlreadyActive) {
		// параллельная доставка успела вставить строку раньше
		active, err = d.store.FindActive(ctx, user.UserID)
		if err != nil {
			return res, fmt.Errorf("%w: %w", ErrStore, err)
		}
		res.Outcome = OutcomeIdempotent
		res.Subscription = active
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrStore, err)
	}

	res.Outcome = OutcomeCreated
	res.Subscription = sub
	d.publish(ctx, rabbitmq.RoutingSubscriptionActivated, models.SubscriptionEvent{
		Type:         models.EventSubscriptionActivated,
		UserID:       user.UserID,
		Email:        user.Email,
		ExternalID:   event.ExternalID(),
		Subscription: sub,
	})
	return res, nil
}

func (d *Dispatcher) transition(ctx context.Context, event models.WebhookEvent, status models.SubscriptionStatus,
	cancelAtPeriodEnd bool, routingKey string) (Result, error) {
	res := Result{Event: event}

	err := d.store.UpdateStatus(ctx, event.ExternalID(), status, cancelAtPeriodEnd)
	if errors.Is(err, subscription.ErrSubscriptionNotFound) {
		return res, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrStore, err)
	}

	res.Outcome = OutcomeUpdated
	d.publish(ctx, routingKey, models.SubscriptionEvent{
		Type:       routingKey,
		Email:      identity.Normalize(event.BuyerEmail()),
		ExternalID: event.ExternalID(),
	})
	return res, nil
}

// publish не влияет на ответ провайдеру: ошибка только логируется.
func (d *Dispatcher) publish(ctx context.Context, routingKey string, msg models.SubscriptionEvent) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.Publish(ctx, routingKey, msg); err != nil {
		d.log.Warn("failed to publish subscription event",
			slog.String("routing_key", routingKey), sl.Err(err))
	}
}

// ResolvePlanPeriod определяет период по настроенным идентификаторам продуктов.
// Годовой идентификатор проверяется первым. Без совпадений подписка считается
// месячной, а разовая продажа годовой.
func ResolvePlanPeriod(event models.WebhookEvent, plans Plans) models.PlanPeriod {
	if matchesProduct(event, plans.YearlyProductID) {
		return models.PeriodYearly
	}
	if matchesProduct(event, plans.MonthlyProductID) {
		return models.PeriodMonthly
	}
	if event.Resource == models.ResourceSale {
		return models.PeriodYearly
	}
	return models.PeriodMonthly
}

func matchesProduct(event models.WebhookEvent, productID string) bool {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return false
	}
	return strings.Contains(event.ProductPermalink, productID) || strings.Contains(event.ProductID, productID)
}

// EventFromForm собирает событие из полей формы.
func EventFromForm(v formdata.Values) models.WebhookEvent {
	fullName := v.Get("full_name")
	if fullName == "" {
		fullName = v.Get("purchaser_name")
	}
	return models.WebhookEvent{
		SellerID:         v.Get("seller_id"),
		ProductID:        v.Get("product_id"),
		ProductPermalink: v.Get("product_permalink"),
		SubscriptionID:   v.Get("subscription_id"),
		PurchaserID:      v.Get("purchaser_id"),
		Email:            strings.TrimSpace(v.Get("email")),
		PurchaserEmail:   strings.TrimSpace(v.Get("purchaser_email")),
		SaleID:           v.Get("sale_id"),
		SaleTimestamp:    v.Get("sale_timestamp"),
		Resource:         v.Get("resource_name"),
		Action:           v.Get("resource_action"),
		FullName:         fullName,
	}
}
