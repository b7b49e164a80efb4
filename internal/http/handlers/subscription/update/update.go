// Package update реализует HTTP-обработчик частичного обновления подписки.
//
// Применяются только поля, присутствующие в теле запроса. Подписку в конечном
// состоянии (cancelled, expired) изменить нельзя.
package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Handler обрабатывает запросы на обновление подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики обновления подписки.
type Service interface {
	Edit(ctx context.Context, principal models.Principal, id string, req models.EditRequest) (*models.Subscription, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Обновить подписку
// @Description Частично обновляет подписку владельца.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID подписки"
// @Param request body models.EditRequest true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.Subscription} "Обновлённая подписка"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON, ошибка валидации или конечное состояние"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Подписка принадлежит другому пользователю"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Router /subscriptions/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.update"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	principal, ok := middlewarectx.PrincipalFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, log, "principal not found in context", jwt.ErrMissingCredential)
		return
	}

	var req models.EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.BadRequest(w, r, "invalid request body")
		return
	}

	sub, err := h.service.Edit(r.Context(), principal, chi.URLParam(r, "id"), req)
	if err != nil {
		response.WriteError(w, r, log, "failed to update subscription", err)
		return
	}

	log.Info("success to update subscription", slog.String("subscription_id", sub.ID))
	render.JSON(w, r, response.OK(sub))
}
