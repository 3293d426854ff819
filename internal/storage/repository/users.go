package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/resume-builder/internal/models"
)

const userColumns = `id, email, password_hash, full_name, email_confirmed, created_at`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.EmailConfirmed, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его ID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"

	var newID string
	query := `INSERT INTO users (email, password_hash, full_name, email_confirmed)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.FullName, user.EmailConfirmed).Scan(&newID)
	if violates(err, constraintUsersEmail) {
		return "", fmt.Errorf("%s: %w", op, ErrUserExists)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByEmail ищет пользователя по email без учёта регистра.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "storage.GetUser"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SearchUsersByEmailToken возвращает до limit пользователей, чей email содержит token
// или чья локальная часть email содержится в token. token ожидается в нижнем регистре.
func (s *Storage) SearchUsersByEmailToken(ctx context.Context, token string, limit int) ([]*models.User, error) {
	const op = "storage.SearchUsersByEmailToken"

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE strpos(lower(email), $1) > 0
			     OR (split_part(lower(email), '@', 1) <> ''
			         AND strpos($1, split_part(lower(email), '@', 1)) > 0)
			  ORDER BY created_at
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, token, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
