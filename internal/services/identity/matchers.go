package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/resume-builder/internal/storage/repository"
)

// fuzzyCandidates достаточно двух кандидатов, чтобы отличить однозначное совпадение от неоднозначного.
const fuzzyCandidates = 2

// ExactMatcher ищет пользователя по точному адресу.
type ExactMatcher struct {
	Users UserRepository
}

// Name название стратегии
func (ExactMatcher) Name() string { return StrategyExact }

// Match ищет по основному адресу
func (m ExactMatcher) Match(ctx context.Context, q Query) (string, error) {
	return lookupByEmail(ctx, m.Users, q.Email)
}

// AlternateMatcher для анонимизированного адреса ищет по настоящему адресу из другого поля вебхука.
type AlternateMatcher struct {
	Users UserRepository
}

// Name название стратегии
func (AlternateMatcher) Name() string { return StrategyAlternate }

// Match ищет по альтернативному адресу
func (m AlternateMatcher) Match(ctx context.Context, q Query) (string, error) {
	if !q.Relay || q.Alternate == "" {
		return "", nil
	}
	return lookupByEmail(ctx, m.Users, q.Alternate)
}

// FuzzyMatcher для анонимизированного адреса без альтернативы ищет пользователей,
// чей email содержит локальную часть адреса или содержится в ней.
// Срабатывает только при ровно одном кандидате.
type FuzzyMatcher struct {
	Users UserRepository
}

// Name название стратегии
func (FuzzyMatcher) Name() string { return StrategyFuzzy }

// Match ищет единственного похожего пользователя
func (m FuzzyMatcher) Match(ctx context.Context, q Query) (string, error) {
	if !q.Relay || q.Alternate != "" {
		return "", nil
	}
	token := LocalPart(q.Email)
	if token == "" {
		return "", nil
	}
	users, err := m.Users.SearchUsersByEmailToken(ctx, token, fuzzyCandidates)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLookup, err)
	}
	if len(users) != 1 {
		return "", nil
	}
	return users[0].ID, nil
}

// LocalPart возвращает часть адреса до @.
func LocalPart(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return ""
	}
	return local
}

func lookupByEmail(ctx context.Context, users UserRepository, email string) (string, error) {
	if email == "" {
		return "", nil
	}
	u, err := users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLookup, err)
	}
	return u.ID, nil
}
