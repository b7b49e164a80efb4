// Package apperr содержит доменные ошибки, общие для сервисов и HTTP-слоя.
// Ошибки создаются в месте обнаружения и транслируются в HTTP-ответ
// в одной точке (response.FromError).
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound - запрошенный ресурс отсутствует.
	ErrNotFound = errors.New("resource not found")
	// ErrUserNotFound - запрошенный пользователь отсутствует, errors.Is(err, ErrNotFound) истинно.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrForbidden - принципал не является владельцем ресурса или аккаунта.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized - принципал по токену не найден.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict - операция недопустима в текущем состоянии ресурса.
	ErrConflict = errors.New("conflict")
	// ErrValidation - нарушены ограничения сущности.
	ErrValidation = errors.New("validation failed")
	// ErrEmailTaken - пользователь с таким email уже существует.
	ErrEmailTaken error = &ConflictError{Message: "user with this email already exists"}
	// ErrInvalidCredentials - неверная пара email/пароль при входе.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError перечисляет нарушенные ограничения в человеко-читаемом виде.
type ValidationError struct {
	Messages []string
}

// NewValidation создаёт ошибку валидации из списка сообщений.
func NewValidation(msgs ...string) *ValidationError {
	return &ValidationError{Messages: msgs}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, ", ")
}

// Is позволяет сравнивать с ErrValidation через errors.Is.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConflictError - конфликт состояния с сообщением для клиента.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// Is позволяет сравнивать с ErrConflict через errors.Is.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Conflict создаёт ошибку конфликта с сообщением.
func Conflict(msg string) error {
	return &ConflictError{Message: msg}
}
