// Package response содержит единый формат JSON-ответов и трансляцию ошибок
// бизнес-логики в HTTP-статусы. FromError - единственное место такой трансляции.
package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
)

// Response описывает стандартную структуру JSON-ответа сервера.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse - структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"Subscription not found"`
}

// OK возвращает успешный Response с данными.
func OK(data any) Response {
	return Response{Success: true, Data: data}
}

// Message возвращает успешный Response с сообщением.
func Message(msg string) Response {
	return Response{Success: true, Message: msg}
}

// Error возвращает Response с ошибкой и сообщением для клиента.
func Error(msg string) Response {
	return Response{Success: false, Message: msg}
}

// FromError сопоставляет ошибку со статусом и безопасным для клиента сообщением.
// Подробности внутренних ошибок клиенту не передаются.
func FromError(err error) (int, string) {
	var (
		verr     *apperr.ValidationError
		conflict *apperr.ConflictError
	)
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, jwt.ErrMissingCredential):
		return http.StatusUnauthorized, "Unauthorized - No token provided"
	case errors.Is(err, jwt.ErrServerMisconfiguration):
		return http.StatusInternalServerError, "Server configuration error"
	case errors.Is(err, jwt.ErrMalformedToken):
		return http.StatusUnauthorized, "Invalid token structure"
	case errors.Is(err, jwt.ErrExpired):
		return http.StatusUnauthorized, "Token expired"
	case errors.Is(err, jwt.ErrNotYetValid):
		return http.StatusUnauthorized, "Token not active yet"
	case errors.Is(err, jwt.ErrInvalidSignature):
		return http.StatusUnauthorized, "Invalid token"
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized, "User not found"
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, "You are not the owner of this resource"
	case errors.Is(err, apperr.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "Subscription not found"
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.As(err, &conflict):
		return http.StatusBadRequest, conflict.Message
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusBadRequest, "Operation is not allowed in the current state"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// WriteError логирует ошибку и отправляет ответ со статусом из FromError.
func WriteError(w http.ResponseWriter, r *http.Request, log *slog.Logger, msg string, err error) {
	status, clientMsg := FromError(err)
	if status >= http.StatusInternalServerError {
		log.Error(msg, sl.Err(err), slog.Int("status", status))
	} else {
		log.Warn(msg, sl.Err(err), slog.Int("status", status))
	}
	render.Status(r, status)
	render.JSON(w, r, Error(clientMsg))
}

// BadRequest отправляет 400 с сообщением, например при нечитаемом теле запроса.
func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Error(msg))
}
