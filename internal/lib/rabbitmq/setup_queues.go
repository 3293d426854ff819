package rabbitmq

// QueueConfig описывает очередь и ключ маршрутизации, с которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Ключи маршрутизации событий жизненного цикла подписки.
const (
	RoutingSubscriptionActivated = "subscription.activated"
	RoutingSubscriptionCanceled  = "subscription.canceled"
	RoutingSubscriptionEnded     = "subscription.ended"
	RoutingSubscriptionFailed    = "subscription.failed"
	RoutingSubscriptionEnding    = "subscription.ending"
)

// NotificationsQueue очередь, из которой читает notification-sender.
const NotificationsQueue = "premium.notifications"

// GetNotificationQueues возвращает привязки очереди уведомлений ко всем событиям подписки.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: NotificationsQueue, RoutingKey: RoutingSubscriptionActivated},
		{QueueName: NotificationsQueue, RoutingKey: RoutingSubscriptionCanceled},
		{QueueName: NotificationsQueue, RoutingKey: RoutingSubscriptionEnded},
		{QueueName: NotificationsQueue, RoutingKey: RoutingSubscriptionFailed},
		{QueueName: NotificationsQueue, RoutingKey: RoutingSubscriptionEnding},
	}
}
