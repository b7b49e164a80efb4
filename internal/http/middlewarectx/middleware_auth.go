// Package middlewarectx содержит HTTP middleware сервиса.
//
// Authenticate проверяет токен из заголовка Authorization, находит по нему пользователя
// и кладёт в контекст запроса неизменяемый models.Principal. Обработчики читают его
// через PrincipalFromContext и передают в сервисы явным аргументом.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

type principalKey struct{}

// Verifier проверяет заголовок Authorization и возвращает идентификатор субъекта.
type Verifier interface {
	Verify(rawHeader string) (string, error)
}

// Resolver находит принципала по идентификатору субъекта.
type Resolver interface {
	ResolvePrincipal(ctx context.Context, subjectID string) (models.Principal, error)
}

// Authenticate возвращает middleware, который пропускает запрос дальше только с установленным принципалом.
// Ошибки проверки токена и поиска пользователя транслируются через response.FromError.
func Authenticate(verifier Verifier, resolver Resolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Authenticate"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			subjectID, err := verifier.Verify(r.Header.Get("Authorization"))
			if err != nil {
				response.WriteError(w, r, log, "token verification failed", err)
				return
			}

			principal, err := resolver.ResolvePrincipal(r.Context(), subjectID)
			if err != nil {
				response.WriteError(w, r, log, "failed to resolve principal", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// WithPrincipal возвращает контекст с принципалом.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext возвращает принципала запроса. ok равен false для неаутентифицированных запросов.
func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(models.Principal)
	return p, ok && p.ID != ""
}
