// Package remove реализует HTTP-обработчик удаления подписки.
// Удаление безвозвратное и доступно в любом состоянии подписки.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Handler обрабатывает запросы на удаление подписки.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики удаления подписки
}

// Service описывает интерфейс бизнес-логики удаления подписки.
type Service interface {
	Delete(ctx context.Context, principal models.Principal, id string) (string, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить подписку
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID подписки"
// @Success 200 {object} response.Response "Подписка удалена"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Подписка принадлежит другому пользователю"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Router /subscriptions/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	principal, ok := middlewarectx.PrincipalFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, log, "principal not found in context", jwt.ErrMissingCredential)
		return
	}

	id, err := h.service.Delete(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, log, "failed to delete subscription", err)
		return
	}

	log.Info("success to delete subscription", slog.String("subscription_id", id))
	render.JSON(w, r, response.Response{
		Success: true,
		Message: "Subscription deleted successfully",
		Data:    map[string]string{"id": id},
	})
}
