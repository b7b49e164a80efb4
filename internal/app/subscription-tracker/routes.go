package subscriptiontracker

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация swagger-спецификации для /docs.
	_ "github.com/magabrotheeeer/subscription-tracker/docs"
	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/signin"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/signout"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/signup"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/cancel"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/create"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/health"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/listbyuser"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/read"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/remove"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/update"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/user/profile"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/metrics"
)

// AuthService - бизнес-логика, нужная маршрутам аутентификации и профиля.
type AuthService interface {
	signup.Service
	signin.Service
	profile.Service
	middlewarectx.Resolver
}

// SubscriptionService - бизнес-логика, нужная маршрутам подписок.
type SubscriptionService interface {
	create.Service
	listbyuser.Service
	read.Service
	update.Service
	cancel.Service
	remove.Service
}

// Deps - зависимости маршрутов.
type Deps struct {
	Auth          AuthService
	Subscriptions SubscriptionService
	Verifier      middlewarectx.Verifier
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	HealthChecks  map[string]health.Pinger
	RateLimit     config.RateLimit
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.Metrics(deps.Metrics),
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimit(deps.RateLimit.RPS, deps.RateLimit.Burst, logger))

		// Открытые конечные точки
		r.Route("/auth", func(r chi.Router) {
			r.Post("/sign-up", signup.New(logger, deps.Auth).ServeHTTP)
			r.Post("/sign-in", signin.New(logger, deps.Auth).ServeHTTP)
			r.Post("/sign-out", signout.New(logger).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.Authenticate(deps.Verifier, deps.Auth, logger))
			r.Get("/users/{id}", profile.New(logger, deps.Auth).ServeHTTP)
			r.Post("/subscriptions", create.New(logger, deps.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/user/{id}", listbyuser.New(logger, deps.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/{id}", read.New(logger, deps.Subscriptions).ServeHTTP)
			r.Put("/subscriptions/{id}", update.New(logger, deps.Subscriptions).ServeHTTP)
			r.Put("/subscriptions/{id}/cancel", cancel.New(logger, deps.Subscriptions).ServeHTTP)
			r.Delete("/subscriptions/{id}", remove.New(logger, deps.Subscriptions).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, deps.HealthChecks).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
