// Package create реализует HTTP-обработчик для создания новых подписок пользователя.
//
// Handler декодирует JSON с данными подписки, берёт принципала из контекста запроса
// и передаёт их сервису. Владелец и статус подписки из тела запроса не принимаются.
// В ответе возвращается созданная подписка и идентификатор запуска напоминания (или null).
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Handler управляет HTTP-запросами на создание новых подписок.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики для создания подписок
}

// Service описывает интерфейс бизнес-логики создания подписки.
type Service interface {
	Create(ctx context.Context, principal models.Principal, req models.CreateRequest) (*models.CreateResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Создать новую подписку
// @Description Создает подписку для текущего пользователя и в production планирует напоминание.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.CreateRequest true "Данные новой подписки"
// @Success 201 {object} response.Response{data=models.CreateResult} "Подписка создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при создании подписки"
// @Router /subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	principal, ok := middlewarectx.PrincipalFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, log, "principal not found in context", jwt.ErrMissingCredential)
		return
	}

	var req models.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.BadRequest(w, r, "invalid request body")
		return
	}

	res, err := h.service.Create(r.Context(), principal, req)
	if err != nil {
		response.WriteError(w, r, log, "failed to create subscription", err)
		return
	}

	log.Info("subscription created", slog.String("subscription_id", res.Subscription.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(res))
}
