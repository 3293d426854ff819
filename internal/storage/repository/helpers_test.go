package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/resume-builder/internal/migrations"
	"github.com/magabrotheeeer/resume-builder/internal/models"
)

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL и применяет миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err)

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	_, err = migrations.Run(storage.DB, migrationsPath)
	require.NoError(t, err)

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя и возвращает его ID
func (f *TestDataFactory) CreateUser(t *testing.T, email string) string {
	t.Helper()
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO users (email, password_hash, email_confirmed)
		VALUES ($1, 'hash', TRUE) RETURNING id`, email).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateSubscription создает тестовую подписку
func (f *TestDataFactory) CreateSubscription(t *testing.T, userID, externalID string,
	status models.SubscriptionStatus, createdAt time.Time) string {
	t.Helper()
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO subscriptions
		(user_id, status, plan_type, plan_period, current_period_start, current_period_end,
		 external_subscription_id, created_at, updated_at)
		VALUES ($1, $2, 'premium', 'monthly', $3, $4, $5, $3, $3) RETURNING id`,
		userID, string(status), createdAt, createdAt.AddDate(0, 1, 0), externalID).Scan(&id)
	require.NoError(t, err)
	return id
}

// Subscription читает подписку по ID
func (f *TestDataFactory) Subscription(t *testing.T, id string) *models.Subscription {
	t.Helper()
	sub, err := scanSubscription(f.storage.DB.QueryRow(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id))
	require.NoError(t, err)
	return sub
}
