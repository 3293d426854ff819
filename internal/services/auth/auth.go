// Package auth содержит логику регистрации и входа пользователей.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/resume-builder/internal/lib/jwt"
	"github.com/magabrotheeeer/resume-builder/internal/lib/password"
	"github.com/magabrotheeeer/resume-builder/internal/models"
	"github.com/magabrotheeeer/resume-builder/internal/services/identity"
	"github.com/magabrotheeeer/resume-builder/internal/storage/repository"
)

// ErrInvalidCredentials неверный email или пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его ID.
	CreateUser(ctx context.Context, user models.User) (string, error)

	// GetUserByEmail возвращает пользователя по email или repository.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service отвечает за регистрацию, авторизацию и валидацию JWT.
type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// NewService создает новый экземпляр Service.
func NewService(users UserRepository, jwtMaker jwt.Maker) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Register создает нового пользователя с хэшированием пароля.
func (s *Service) Register(ctx context.Context, email, fullName, rawPassword string) (string, error) {
	const op = "auth.Register"
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	id, err := s.users.CreateUser(ctx, models.User{
		Email:        identity.Normalize(email),
		FullName:     fullName,
		PasswordHash: hashed,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// Login проверяет пароль пользователя и выпускает JWT.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (string, error) {
	const op = "auth.Login"
	user, err := s.users.GetUserByEmail(ctx, identity.Normalize(email))
	if errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// ValidateToken проверяет JWT и возвращает пользователя из claims.
func (s *Service) ValidateToken(_ context.Context, token string) (*models.User, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return &models.User{ID: claims.UserID, Email: claims.Email}, nil
}
