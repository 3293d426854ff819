package models

// Типы событий подписки для сервиса уведомлений.
const (
	EventSubscriptionActivated = "subscription.activated"
	EventSubscriptionCanceled  = "subscription.canceled"
	EventSubscriptionEnded     = "subscription.ended"
	EventSubscriptionFailed    = "subscription.failed"
	EventSubscriptionEnding    = "subscription.ending"
)

// SubscriptionEvent публикуется в RabbitMQ после изменения состояния подписки.
type SubscriptionEvent struct {
	Type         string        `json:"type"`
	UserID       string        `json:"user_id,omitempty"`
	Email        string        `json:"email,omitempty"`
	ExternalID   string        `json:"external_subscription_id"`
	Subscription *Subscription `json:"subscription,omitempty"`
}
