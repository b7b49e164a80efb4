// Package subscriptiontracker собирает зависимости сервиса и запускает HTTP-сервер.
package subscriptiontracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-tracker/internal/cache"
	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/health"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/password"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/migrations"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/auth"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/reminder"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/subscription"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/mongo"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/postgresql"
	"github.com/magabrotheeeer/subscription-tracker/internal/workflow"
)

const (
	shutdownTimeout = 15 * time.Second
	amqpRetries     = 5
	amqpRetryDelay  = 2 * time.Second
)

// store - хранилище пользователей и подписок, общее для драйверов postgres и mongo.
type store interface {
	auth.UserRepository
	subscription.Repository
	Close(ctx context.Context) error
}

// App хранит HTTP-сервер и ресурсы, которые нужно освободить при остановке.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	store      store
	closers    []func() error
	dispatcher *reminder.Dispatcher
}

// New создаёт приложение: хранилище, кэш, транспорт напоминаний, сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	checks := map[string]health.Pinger{}
	app := &App{logger: logger}

	db, err := openStore(ctx, cfg, checks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.store = db

	subCache, err := app.openCache(ctx, cfg, checks)
	if err != nil {
		app.closeResources()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.JWTSecretKey == "" {
		logger.Error("JWT secret is not configured, protected routes will respond with server configuration error")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	trigger, err := app.newTrigger(cfg)
	if err != nil {
		app.closeResources()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.dispatcher = reminder.New(trigger, reminder.Options{
		Production:  cfg.IsProduction(),
		ServerURL:   cfg.Reminder.ServerURL,
		MaxInFlight: cfg.Reminder.MaxInFlight,
		Timeout:     cfg.Reminder.Timeout,
	}, m, logger)

	authService := auth.New(db, jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL), password.NewHasher(cfg.BcryptCost), logger)
	subscriptionService := subscription.New(db, subCache, cfg.CacheTTL, app.dispatcher, m, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Auth:          authService,
		Subscriptions: subscriptionService,
		Verifier:      jwt.NewVerifier(cfg.JWTSecretKey),
		Metrics:       m,
		Gatherer:      reg,
		HealthChecks:  checks,
		RateLimit:     cfg.RateLimit,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func openStore(ctx context.Context, cfg *config.Config, checks map[string]health.Pinger) (store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		db, err := mongo.New(ctx, cfg.MongoURL, cfg.MongoDatabase, cfg.ConnectAttempts)
		if err != nil {
			return nil, err
		}
		checks["storage"] = db.Ping
		return db, nil
	default:
		db, err := postgresql.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err = migrations.Run(db.DB); err != nil {
			_ = db.Close(ctx)
			return nil, err
		}
		checks["storage"] = db.DB.PingContext
		return db, nil
	}
}

func (a *App) openCache(ctx context.Context, cfg *config.Config, checks map[string]health.Pinger) (subscription.Cache, error) {
	if cfg.AddressRedis == "" {
		a.logger.Warn("redis address is not configured, subscription cache disabled")
		return cache.Nop{}, nil
	}
	c, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, c.Close)
	checks["cache"] = func(ctx context.Context) error { return c.Db.Ping(ctx).Err() }
	return c, nil
}

func (a *App) newTrigger(cfg *config.Config) (reminder.Trigger, error) {
	if cfg.Reminder.Transport != config.TransportAMQP {
		return workflow.NewClient(cfg.Reminder.QStashURL, cfg.Reminder.QStashToken, cfg.Reminder.Timeout), nil
	}

	conn, err := rabbitmq.Connect(cfg.Reminder.AMQPURL, amqpRetries, amqpRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.Reminder.Exchange, rabbitmq.ReminderQueues(cfg.Reminder.RoutingKey))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	a.closers = append(a.closers, ch.Close, conn.Close)
	a.watchConnection(conn)
	return rabbitmq.NewPublisher(ch, cfg.Reminder.Exchange, cfg.Reminder.RoutingKey), nil
}

// watchConnection логирует разрыв соединения с брокером. Переподключения нет:
// запуски после разрыва завершатся ошибкой и попадут в лог и метрики.
func (a *App) watchConnection(conn *amqp.Connection) {
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if err, ok := <-closed; ok && err != nil {
			a.logger.Error("rabbitmq connection closed", slog.String("reason", err.Reason))
		}
	}()
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.shutdown()
		return err
	case <-ctx.Done():
		a.logger.Info("shutting down HTTP server gracefully")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := a.server.Shutdown(timeoutCtx)
		a.shutdown()
		return err
	}
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.dispatcher.Stop(ctx); err != nil {
		a.logger.Warn("reminder dispatcher did not finish in-flight triggers in time", sl.Err(err))
	}
	a.closeResources()
}

func (a *App) closeResources() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close resource", sl.Err(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(context.Background()); err != nil {
			a.logger.Warn("failed to close storage", sl.Err(err))
		}
	}
}
