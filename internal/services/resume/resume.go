// Package resume генерирует текст резюме и хранит сохранённые резюме пользователей.
package resume

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/resume-builder/internal/lib/metrics"
	"github.com/magabrotheeeer/resume-builder/internal/lib/sl"
	"github.com/magabrotheeeer/resume-builder/internal/models"
	"github.com/magabrotheeeer/resume-builder/internal/storage/repository"
)

// ErrResumeNotFound резюме нет или оно недоступно запрашивающему.
var ErrResumeNotFound = errors.New("resume not found")

// Источники текста для метрик.
const (
	SourceOpenAI   = "openai"
	SourceFallback = "fallback"
	SourceCached   = "cached"
)

// DefaultTemplate шаблон оформления по умолчанию
const DefaultTemplate = "modern"

const cacheTTL = time.Hour

// Generator модель генерации текста.
type Generator interface {
	Enabled() bool
	Model() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// Cache кеш результатов генерации.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Repository хранилище резюме.
type Repository interface {
	CreateResume(ctx context.Context, resume models.Resume) (*models.Resume, error)
	GetResume(ctx context.Context, id string) (*models.Resume, error)
	ListResumes(ctx context.Context, userID string, limit, offset int) ([]*models.Resume, error)
}

// Service генерация и хранение резюме.
type Service struct {
	gen     Generator
	cache   Cache
	repo    Repository
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewService создаёт сервис. cache и m могут быть nil.
func NewService(gen Generator, cache Cache, repo Repository, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		gen:     gen,
		cache:   cache,
		repo:    repo,
		metrics: m,
		log:     log,
	}
}

// Generate генерирует текст резюме через модель. При любой ошибке модели
// используется локальный шаблон, поэтому метод не возвращает ошибку генерации.
func (s *Service) Generate(ctx context.Context, data models.ResumeFormData) models.GeneratedResume {
	const op = "resume.Generate"
	log := s.log.With(slog.String("op", op))

	if !s.gen.Enabled() {
		s.metrics.TextGen(SourceFallback)
		return models.GeneratedResume{Text: Fallback(data)}
	}

	key := CacheKey(data)
	if s.cache != nil {
		var cached models.GeneratedResume
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn("failed to read resume cache", sl.Err(err))
		}
		if found {
			s.metrics.TextGen(SourceCached)
			return cached
		}
	}

	text, err := s.gen.Complete(ctx, SystemPrompt, BuildPrompt(data))
	if err != nil {
		log.Warn("text generation failed, using fallback template", sl.Err(err))
		s.metrics.TextGen(SourceFallback)
		return models.GeneratedResume{Text: Fallback(data)}
	}

	result := models.GeneratedResume{Text: text, UsingOpenAI: true, Model: s.gen.Model()}
	s.metrics.TextGen(SourceOpenAI)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, cacheTTL); err != nil {
			log.Warn("failed to cache generated resume", sl.Err(err))
		}
	}
	return result
}

// CacheKey ключ кеша: SHA-256 от данных формы.
func CacheKey(data models.ResumeFormData) string {
	raw, _ := json.Marshal(data)
	sum := sha256.Sum256(raw)
	return "resume:gen:" + hex.EncodeToString(sum[:])
}

// Save сохраняет резюме пользователя.
func (s *Service) Save(ctx context.Context, userID string, r models.Resume) (*models.Resume, error) {
	const op = "resume.Save"
	r.UserID = userID
	if strings.TrimSpace(r.Template) == "" {
		r.Template = DefaultTemplate
	}
	created, err := s.repo.CreateResume(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// List возвращает резюме пользователя, новые первыми.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]*models.Resume, error) {
	const op = "resume.List"
	list, err := s.repo.ListResumes(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Get возвращает резюме, если оно публичное или принадлежит requesterID.
func (s *Service) Get(ctx context.Context, id, requesterID string) (*models.Resume, error) {
	const op = "resume.Get"
	r, err := s.repo.GetResume(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrResumeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !r.IsPublic && (requesterID == "" || r.UserID != requesterID) {
		return nil, fmt.Errorf("%s: %w", op, ErrResumeNotFound)
	}
	return r, nil
}
