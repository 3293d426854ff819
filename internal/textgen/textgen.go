// Package textgen клиент LLM для генерации текста резюме.
// Вызовы идут через circuit breaker: при серии ошибок запросы к API
// временно не отправляются и вызывающий код сразу переходит на запасной шаблон.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"

	"github.com/magabrotheeeer/resume-builder/internal/config"
)

var (
	// ErrDisabled ключ API не настроен.
	ErrDisabled = errors.New("text generation is not configured")
	// ErrEmptyResponse модель не вернула текста.
	ErrEmptyResponse = errors.New("text generation returned no content")
)

// ChatAPI часть клиента go-openai, которой пользуется Client.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client генерирует текст через chat completions.
type Client struct {
	api         ChatAPI
	breaker     *gobreaker.CircuitBreaker[string]
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

// New создаёт клиента по конфигу. Без ключа API клиент отключён.
func New(cfg config.OpenAI) *Client {
	if cfg.OpenAIKey == "" {
		return NewWithAPI(nil, cfg)
	}
	return NewWithAPI(openai.NewClient(cfg.OpenAIKey), cfg)
}

// NewWithAPI создаёт клиента поверх готового ChatAPI.
func NewWithAPI(api ChatAPI, cfg config.OpenAI) *Client {
	return &Client{
		api: api,
		breaker: gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        "openai",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		model:       cfg.OpenAIModel,
		maxTokens:   cfg.OpenAIMaxTokens,
		temperature: cfg.OpenAITemperature,
		timeout:     cfg.OpenAITimeout,
	}
}

// Enabled сообщает, настроен ли клиент.
func (c *Client) Enabled() bool {
	return c != nil && c.api != nil
}

// Model имя модели
func (c *Client) Model() string {
	return c.model
}

// Complete отправляет системное и пользовательское сообщения и возвращает ответ модели.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	const op = "textgen.Complete"
	if !c.Enabled() {
		return "", fmt.Errorf("%s: %w", op, ErrDisabled)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	text, err := c.breaker.Execute(func() (string, error) {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return "", ErrEmptyResponse
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return text, nil
}
