// Package identity сопоставляет email покупателя с учётной записью пользователя.
//
// Поиск идёт цепочкой стратегий: точное совпадение, альтернативный адрес из
// вебхука, нечёткое совпадение по локальной части. Если ни одна стратегия не
// нашла пользователя, Resolver создаёт новую учётную запись.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/resume-builder/internal/lib/password"
	"github.com/magabrotheeeer/resume-builder/internal/lib/sl"
	"github.com/magabrotheeeer/resume-builder/internal/models"
	"github.com/magabrotheeeer/resume-builder/internal/storage/repository"
)

var (
	// ErrUserNotFound пользователь не найден, а создание не выполнялось.
	ErrUserNotFound = errors.New("user not found")
	// ErrLookup ошибка поиска в хранилище пользователей.
	ErrLookup = errors.New("identity lookup failed")
	// ErrCreate ошибка создания пользователя.
	ErrCreate = errors.New("identity creation failed")
)

// Названия стратегий для логов и ответов поддержки.
const (
	StrategyExact     = "exact"
	StrategyAlternate = "alternate"
	StrategyFuzzy     = "fuzzy"
	StrategyCreated   = "created"
)

// UserRepository описывает операции с пользователями, нужные резолверу.
type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SearchUsersByEmailToken(ctx context.Context, token string, limit int) ([]*models.User, error)
	CreateUser(ctx context.Context, user models.User) (string, error)
}

// Request данные покупателя из вебхука.
type Request struct {
	Email          string
	AlternateEmail string
	FullName       string
}

// Result итог сопоставления.
type Result struct {
	UserID   string
	Email    string
	Strategy string
	Created  bool
}

// Query нормализованный запрос, общий для всех стратегий.
type Query struct {
	Email     string
	Alternate string
	Relay     bool
}

// Target адрес, с которым будет создан пользователь, если совпадений нет.
func (q Query) Target() string {
	if q.Relay && q.Alternate != "" {
		return q.Alternate
	}
	return q.Email
}

// Matcher одна стратегия поиска. Пустой userID без ошибки означает «не нашёл».
type Matcher interface {
	Name() string
	Match(ctx context.Context, q Query) (string, error)
}

// Resolver находит или создаёт пользователя по email покупателя.
type Resolver struct {
	users         UserRepository
	matchers      []Matcher
	relayDomain   string
	createMissing bool
	log           *slog.Logger
}

// NewResolver собирает цепочку стратегий по умолчанию. relayDomain задаёт домен
// анонимизированных адресов провайдера, createMissing разрешает создание пользователей.
func NewResolver(users UserRepository, relayDomain string, createMissing bool, log *slog.Logger) *Resolver {
	return NewResolverWithMatchers(users, relayDomain, createMissing, log,
		ExactMatcher{Users: users},
		AlternateMatcher{Users: users},
		FuzzyMatcher{Users: users},
	)
}

// NewResolverWithMatchers создаёт Resolver с произвольной цепочкой стратегий.
func NewResolverWithMatchers(users UserRepository, relayDomain string, createMissing bool,
	log *slog.Logger, matchers ...Matcher) *Resolver {
	return &Resolver{
		users:         users,
		matchers:      matchers,
		relayDomain:   strings.ToLower(strings.TrimPrefix(strings.TrimSpace(relayDomain), "@")),
		createMissing: createMissing,
		log:           log,
	}
}

// Normalize обрезает пробелы и приводит адрес к нижнему регистру.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *Resolver) query(req Request) Query {
	q := Query{Email: Normalize(req.Email)}
	if r.relayDomain != "" && strings.HasSuffix(q.Email, "@"+r.relayDomain) {
		q.Relay = true
	}
	if alt := Normalize(req.AlternateEmail); strings.Contains(alt, "@") && alt != q.Email {
		q.Alternate = alt
	}
	return q
}

// Lookup ищет пользователя без создания. Возвращает ErrUserNotFound, если ни одна стратегия не сработала.
func (r *Resolver) Lookup(ctx context.Context, req Request) (Result, error) {
	const op = "identity.Lookup"
	q := r.query(req)
	if q.Email == "" && q.Alternate == "" {
		return Result{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	for _, m := range r.matchers {
		userID, err := m.Match(ctx, q)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %s: %w", op, m.Name(), err)
		}
		if userID != "" {
			return Result{UserID: userID, Email: q.Target(), Strategy: m.Name()}, nil
		}
	}
	return Result{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
}

// Resolve ищет пользователя и при отсутствии создаёт его с подтверждённым email
// и случайным паролем-заглушкой.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	const op = "identity.Resolve"
	log := r.log.With(slog.String("op", op), sl.Email(req.Email))

	res, err := r.Lookup(ctx, req)
	if err == nil {
		log.Debug("purchaser resolved", slog.String("strategy", res.Strategy), slog.String("user_id", res.UserID))
		return res, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return Result{}, err
	}
	if !r.createMissing {
		return Result{}, err
	}

	q := r.query(req)
	target := q.Target()
	if target == "" {
		return Result{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	userID, err := r.create(ctx, target, strings.TrimSpace(req.FullName))
	if errors.Is(err, repository.ErrUserExists) {
		// пользователь появился между поиском и вставкой
		u, lookupErr := r.users.GetUserByEmail(ctx, target)
		if lookupErr != nil {
			return Result{}, fmt.Errorf("%s: %w: %w", op, ErrLookup, lookupErr)
		}
		return Result{UserID: u.ID, Email: target, Strategy: StrategyExact}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w: %w", op, ErrCreate, err)
	}

	log.Info("created user for purchaser", slog.String("user_id", userID), sl.Email(target))
	return Result{UserID: userID, Email: target, Strategy: StrategyCreated, Created: true}, nil
}

func (r *Resolver) create(ctx context.Context, email, fullName string) (string, error) {
	placeholder, err := password.GeneratePlaceholder()
	if err != nil {
		return "", err
	}
	hash, err := password.GetHash(placeholder)
	if err != nil {
		return "", err
	}
	return r.users.CreateUser(ctx, models.User{
		Email:          email,
		FullName:       fullName,
		PasswordHash:   hash,
		EmailConfirmed: true,
	})
}
