// Package signin реализует HTTP-обработчик входа пользователя по email и паролю.
package signin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Handler обрабатывает HTTP-запросы на вход.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики входа.
type Service interface {
	SignIn(ctx context.Context, req models.SignInRequest) (*models.AuthResult, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Вход пользователя
// @Description Проверяет email и пароль и возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.SignInRequest true "Учетные данные пользователя"
// @Success 200 {object} response.Response{data=models.AuthResult} "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/sign-in [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signin"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "invalid request body")
		return
	}

	res, err := h.service.SignIn(r.Context(), req)
	if err != nil {
		response.WriteError(w, r, log, "sign in failed", err)
		return
	}

	log.Info("sign in success", slog.String("user_id", res.User.ID))
	render.JSON(w, r, response.Response{
		Success: true,
		Message: "User signed in successfully",
		Data:    res,
	})
}
