package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/subscription-tracker/internal/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// CreateUser сохраняет нового пользователя и заполняет метки времени.
// Повторный email возвращает apperr.ErrEmailTaken.
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgresql.CreateUser"

	query := `INSERT INTO users (id, name, email, password_hash)
			  VALUES ($1, $2, $3, $4)
			  RETURNING created_at, updated_at`
	err := s.DB.QueryRowContext(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, apperr.ErrEmailTaken)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UserByID возвращает пользователя по идентификатору.
func (s *Storage) UserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.postgresql.UserByID"
	if !validID(id) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return s.userBy(ctx, op, `WHERE id = $1`, id)
}

// UserByEmail возвращает пользователя по email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgresql.UserByEmail"
	return s.userBy(ctx, op, `WHERE email = $1`, email)
}

func (s *Storage) userBy(ctx context.Context, op, where string, arg any) (*models.User, error) {
	query := `SELECT id, name, email, password_hash, created_at, updated_at FROM users ` + where
	u := &models.User{}
	err := s.DB.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
