package rabbitmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetNotificationQueues(t *testing.T) {
	queues := GetNotificationQueues()
	require.Len(t, queues, 5)

	keys := map[string]bool{}
	for _, q := range queues {
		assert.Equal(t, NotificationsQueue, q.QueueName)
		assert.Falsef(t, keys[q.RoutingKey], "duplicate routing key: %s", q.RoutingKey)
		keys[q.RoutingKey] = true
	}

	for _, key := range []string{
		RoutingSubscriptionActivated,
		RoutingSubscriptionCanceled,
		RoutingSubscriptionEnded,
		RoutingSubscriptionFailed,
		RoutingSubscriptionEnding,
	} {
		assert.True(t, keys[key], "missing routing key %s", key)
	}
}
