// Package signout реализует выход пользователя. Токены не хранятся на сервере,
// поэтому выход сводится к подтверждению: клиент удаляет токен у себя.
package signout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
)

// Handler обрабатывает HTTP-запросы на выход.
type Handler struct {
	log *slog.Logger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Выход пользователя
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response "Успешный выход"
// @Router /auth/sign-out [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.log.Info("sign out",
		slog.String("op", "handlers.auth.signout"),
		slog.String("request_id", middleware.GetReqID(r.Context())))
	render.JSON(w, r, response.Message("User signed out successfully"))
}
