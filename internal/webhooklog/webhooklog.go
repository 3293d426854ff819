// Package webhooklog хранит последние входящие вебхуки для отладки.
// Журнал ограничен по размеру, новые записи идут первыми.
package webhooklog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/magabrotheeeer/resume-builder/internal/models"
)

// DefaultSize размер журнала по умолчанию
const DefaultSize = 10

// Log журнал вебхуков
type Log interface {
	Record(ctx context.Context, entry models.WebhookLogEntry) error
	Recent(ctx context.Context) ([]models.WebhookLogEntry, error)
}

// Memory журнал в памяти процесса
type Memory struct {
	mu      sync.Mutex
	size    int
	entries []models.WebhookLogEntry
}

// NewMemory создаёт журнал в памяти на size записей
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultSize
	}
	return &Memory{size: size}
}

// Record добавляет запись в начало журнала
func (m *Memory) Record(_ context.Context, entry models.WebhookLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append([]models.WebhookLogEntry{entry}, m.entries...)
	if len(m.entries) > m.size {
		m.entries = m.entries[:m.size]
	}
	return nil
}

// Recent возвращает копию записей, новые первыми
func (m *Memory) Recent(_ context.Context) ([]models.WebhookLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.WebhookLogEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

// ListStore список с ограничением длины, реализуется cache.Cache
type ListStore interface {
	PushCapped(ctx context.Context, key string, value any, limit int) error
	Range(ctx context.Context, key string, limit int) ([][]byte, error)
}

// Ключи списков в redis. Тестовые запросы отладочного эндпоинта и настоящие
// доставки провайдера хранятся раздельно.
const (
	KeyTests      = "webhooks:tests"
	KeyDeliveries = "webhooks:deliveries"
)

// Redis журнал, общий для всех экземпляров сервиса
type Redis struct {
	store ListStore
	key   string
	size  int
}

// NewRedis создаёт журнал поверх списка redis с ключом key
func NewRedis(store ListStore, key string, size int) *Redis {
	if size <= 0 {
		size = DefaultSize
	}
	return &Redis{store: store, key: key, size: size}
}

// Record добавляет запись в начало списка
func (r *Redis) Record(ctx context.Context, entry models.WebhookLogEntry) error {
	const op = "webhooklog.Record"
	if err := r.store.PushCapped(ctx, r.key, entry, r.size); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Recent возвращает записи, новые первыми
func (r *Redis) Recent(ctx context.Context) ([]models.WebhookLogEntry, error) {
	const op = "webhooklog.Recent"
	raw, err := r.store.Range(ctx, r.key, r.size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]models.WebhookLogEntry, 0, len(raw))
	for _, item := range raw {
		var entry models.WebhookLogEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, entry)
	}
	return out, nil
}
