// Package reminder планирует напоминания о продлении подписок.
// Запуск делает одну попытку с таймаутом, отмена исходного запроса на неё не влияет.
package reminder

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/workflow"
)

// ReminderPath - путь эндпоинта, который вызовет сервис workflow.
const ReminderPath = "/api/v1/workflows/subscription/reminder"

const runIDPrefix = "wfr_"

// Outcome - итог запуска напоминания.
type Outcome string

const (
	// OutcomeSkipped - окружение не production, триггер не вызывался.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeDispatched - сервис workflow принял запуск, RunID заполнен.
	OutcomeDispatched Outcome = "dispatched"
	// OutcomeFailed - запуск не принят, причина в Reason.
	OutcomeFailed Outcome = "failed"
)

// Result - результат Dispatch.
type Result struct {
	Outcome Outcome
	RunID   string
	Reason  string
}

// RunIDPtr возвращает идентификатор запуска или nil, если запуск не состоялся.
func (r Result) RunIDPtr() *string {
	if r.Outcome != OutcomeDispatched || r.RunID == "" {
		return nil
	}
	id := r.RunID
	return &id
}

// Trigger - транспорт запуска workflow (HTTP-клиент или публикатор RabbitMQ).
// Возвращает идентификатор запуска, подтверждённый получателем.
type Trigger interface {
	Trigger(ctx context.Context, req workflow.TriggerRequest, runID string) (string, error)
}

// Options - параметры диспетчера.
type Options struct {
	Production bool
	ServerURL  string
	// MaxInFlight ограничивает число одновременных запусков.
	MaxInFlight int
	Timeout     time.Duration
}

// Dispatcher вызывает триггер ровно один раз на подписку.
// Ошибки триггера логируются и возвращаются как OutcomeFailed, наружу не пробрасываются.
type Dispatcher struct {
	trigger Trigger
	opts    Options
	metrics *metrics.Metrics
	log     *slog.Logger

	slots   chan struct{}
	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// New создаёт диспетчер.
func New(trigger Trigger, opts Options, m *metrics.Metrics, log *slog.Logger) *Dispatcher {
	if opts.MaxInFlight < 1 {
		opts.MaxInFlight = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Dispatcher{
		trigger: trigger,
		opts:    opts,
		metrics: m,
		log:     log,
		slots:   make(chan struct{}, opts.MaxInFlight),
	}
}

// Stop перестаёт принимать запуски и ждёт завершения текущих или отмены ctx.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch запускает напоминание для подписки и возвращает подтверждённый RunID.
// Вне production триггер не вызывается. Ожидание ограничено одной попыткой с таймаутом.
func (d *Dispatcher) Dispatch(ctx context.Context, subscriptionID string) Result {
	if !d.opts.Production {
		d.log.Info("skipping reminder trigger outside production", slog.String("subscription_id", subscriptionID))
		return d.finish(Result{Outcome: OutcomeSkipped})
	}

	if !d.acquire() {
		return d.finish(Result{Outcome: OutcomeFailed, Reason: "dispatcher stopped"})
	}
	defer d.wg.Done()

	select {
	case d.slots <- struct{}{}:
		defer func() { <-d.slots }()
	default:
		d.log.Warn("too many reminder triggers in flight", slog.String("subscription_id", subscriptionID))
		return d.finish(Result{Outcome: OutcomeFailed, Reason: "too many triggers in flight"})
	}

	return d.finish(d.run(context.WithoutCancel(ctx), subscriptionID))
}

func (d *Dispatcher) acquire() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return false
	}
	d.wg.Add(1)
	return true
}

func (d *Dispatcher) finish(r Result) Result {
	d.metrics.ReminderDispatched(string(r.Outcome))
	return r
}

func (d *Dispatcher) run(ctx context.Context, subscriptionID string) Result {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	runID := runIDPrefix + uuid.NewString()
	confirmed, err := d.trigger.Trigger(ctx, d.request(subscriptionID), runID)
	d.metrics.ReminderTriggered(err)

	log := d.log.With(
		slog.String("subscription_id", subscriptionID),
		slog.String("workflow_run_id", runID),
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		log.Error("reminder trigger timed out", slog.Duration("timeout", d.opts.Timeout), sl.Err(err))
		return Result{Outcome: OutcomeFailed, Reason: "trigger timed out"}
	case err != nil:
		log.Error("reminder trigger failed", sl.Err(err))
		return Result{Outcome: OutcomeFailed, Reason: "trigger failed"}
	case confirmed == "":
		log.Error("reminder trigger returned no run id")
		return Result{Outcome: OutcomeFailed, Reason: "no run id"}
	}
	log.Info("reminder triggered")
	return Result{Outcome: OutcomeDispatched, RunID: confirmed}
}

func (d *Dispatcher) request(subscriptionID string) workflow.TriggerRequest {
	return workflow.TriggerRequest{
		URL:     strings.TrimRight(d.opts.ServerURL, "/") + ReminderPath,
		Body:    workflow.ReminderBody{SubscriptionID: subscriptionID},
		Headers: map[string]string{"content-type": "application/json"},
		Retries: 0,
	}
}
