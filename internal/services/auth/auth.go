// Package auth содержит логику регистрации, входа и разрешения принципала по идентификатору из токена.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-tracker/internal/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/validation"
)

// UserRepository описывает контракт хранилища пользователей.
type UserRepository interface {
	// CreateUser сохраняет пользователя, повторный email возвращает apperr.ErrEmailTaken.
	CreateUser(ctx context.Context, user *models.User) error
	// UserByID возвращает пользователя или apperr.ErrNotFound.
	UserByID(ctx context.Context, id string) (*models.User, error)
	// UserByEmail возвращает пользователя или apperr.ErrNotFound.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenMaker выпускает токены доступа.
type TokenMaker interface {
	GenerateToken(userID string) (string, error)
}

// PasswordHasher хэширует и сверяет пароли.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Service отвечает за регистрацию, вход и разрешение принципала.
type Service struct {
	users    UserRepository
	tokens   TokenMaker
	hasher   PasswordHasher
	validate *validation.Validator
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(users UserRepository, tokens TokenMaker, hasher PasswordHasher, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		validate: validation.New(),
		log:      log,
	}
}

// ResolvePrincipal находит пользователя по идентификатору из проверенного токена.
// Отсутствующий пользователь возвращается как apperr.ErrUnauthorized, а не ErrNotFound.
func (s *Service) ResolvePrincipal(ctx context.Context, subjectID string) (models.Principal, error) {
	const op = "services.auth.ResolvePrincipal"

	if subjectID == "" {
		return models.Principal{}, fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
	}
	user, err := s.users.UserByID(ctx, subjectID)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Principal{}, fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
	}
	if err != nil {
		return models.Principal{}, fmt.Errorf("%s: %w", op, err)
	}
	return user.Principal(), nil
}

// Profile возвращает данные пользователя userID. Доступен только собственный профиль:
// несовпадение с principal отклоняется до обращения к хранилищу.
func (s *Service) Profile(ctx context.Context, principal models.Principal, userID string) (*models.User, error) {
	const op = "services.auth.Profile"

	if userID != principal.ID {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrForbidden)
	}
	user, err := s.users.UserByID(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// SignUp регистрирует пользователя и сразу выпускает для него токен.
func (s *Service) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResult, error) {
	const op = "services.auth.SignUp"

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user signed up", slog.String("user_id", user.ID))
	return &models.AuthResult{Token: token, User: user}, nil
}

// SignIn проверяет пароль и выпускает токен.
// Неизвестный email и неверный пароль неразличимы для клиента.
func (s *Service) SignIn(ctx context.Context, req models.SignInRequest) (*models.AuthResult, error) {
	const op = "services.auth.SignIn"

	req.Email = normalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.UserByEmail(ctx, req.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.log.Debug("password mismatch", slog.String("user_id", user.ID), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrInvalidCredentials)
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.AuthResult{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
