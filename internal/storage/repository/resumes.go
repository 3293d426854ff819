package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/resume-builder/internal/models"
)

const resumeColumns = `id, user_id, title, content, template, is_public, created_at, updated_at`

func scanResume(row scanner) (*models.Resume, error) {
	var r models.Resume
	if err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Content, &r.Template, &r.IsPublic,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateResume сохраняет резюме и возвращает сохранённую запись.
func (s *Storage) CreateResume(ctx context.Context, resume models.Resume) (*models.Resume, error) {
	const op = "storage.CreateResume"

	query := `INSERT INTO resumes (user_id, title, content, template, is_public)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING ` + resumeColumns
	created, err := scanResume(s.DB.QueryRowContext(ctx, query,
		resume.UserID, resume.Title, resume.Content, resume.Template, resume.IsPublic))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetResume возвращает резюме по ID или ErrNotFound.
func (s *Storage) GetResume(ctx context.Context, id string) (*models.Resume, error) {
	const op = "storage.GetResume"

	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE id = $1`
	r, err := scanResume(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

// ListResumes возвращает резюме пользователя, новые первыми.
func (s *Storage) ListResumes(ctx context.Context, userID string, limit, offset int) ([]*models.Resume, error) {
	const op = "storage.ListResumes"

	query := `SELECT ` + resumeColumns + `
			  FROM resumes
			  WHERE user_id = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Resume
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
