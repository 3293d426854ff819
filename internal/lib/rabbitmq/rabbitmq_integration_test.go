package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRabbitMQ(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping rabbitmq integration test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3-management",
			ExposedPorts: []string{"5672/tcp"},
			Env: map[string]string{
				"RABBITMQ_DEFAULT_USER": "guest",
				"RABBITMQ_DEFAULT_PASS": "guest",
			},
			WaitingFor: wait.ForListeningPort("5672/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate rabbitmq container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())
}

func TestPublishAndConsume(t *testing.T) {
	uri := setupRabbitMQ(t)

	conn, err := Connect(uri, 10, time.Second)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	ch, err := SetupChannel(conn, "premium-test", GetNotificationQueues())
	require.NoError(t, err)
	defer func() { _ = ch.Close() }()

	type msg struct {
		Type string `json:"type"`
	}

	received := make(chan msg, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	err = ConsumerMessage(ctx, logger, ch, NotificationsQueue, 1, func(_ context.Context, body []byte) error {
		var m msg
		if err := json.Unmarshal(body, &m); err != nil {
			return err
		}
		received <- m
		return nil
	})
	require.NoError(t, err)

	publisher := NewPublisher(ch, "premium-test")
	require.NoError(t, publisher.Publish(ctx, RoutingSubscriptionActivated, msg{Type: "activated"}))

	select {
	case got := <-received:
		assert.Equal(t, "activated", got.Type)
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}
