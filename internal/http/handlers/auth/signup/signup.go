// Package signup реализует HTTP-обработчик регистрации пользователя.
//
// Handler декодирует JSON с именем, email и паролем, передаёт их сервису и при успехе
// возвращает токен доступа вместе с созданным пользователем.
package signup

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

// Handler обрабатывает HTTP-запросы на регистрацию.
type Handler struct {
	log     *slog.Logger // Логгер для записи операций и ошибок
	service Service      // Сервис регистрации
}

// Service описывает интерфейс бизнес-логики регистрации.
type Service interface {
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResult, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Description Создаёт пользователя и возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.SignUpRequest true "Данные пользователя"
// @Success 201 {object} response.Response{data=models.AuthResult} "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON, ошибка валидации или email занят"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/sign-up [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signup"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "invalid request body")
		return
	}

	res, err := h.service.SignUp(r.Context(), req)
	if err != nil {
		response.WriteError(w, r, log, "sign up failed", err)
		return
	}

	log.Info("user created", slog.String("user_id", res.User.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.Response{
		Success: true,
		Message: "User created successfully",
		Data:    res,
	})
}
