// Package subscription реализует жизненный цикл подписки: создание, чтение, правку, отмену и удаление.
// Каждая изменяющая операция загружает запись, проверяет владельца и только затем пишет в хранилище.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/ownership"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/reminder"
	"github.com/magabrotheeeer/subscription-tracker/internal/validation"
)

// Repository описывает контракт хранилища подписок.
type Repository interface {
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	SubscriptionByID(ctx context.Context, id string) (*models.Subscription, error)
	SubscriptionsByUser(ctx context.Context, userID string) ([]*models.Subscription, error)
	UpdateSubscription(ctx context.Context, sub *models.Subscription) error
	DeleteSubscription(ctx context.Context, id string) error
}

// Cache - кэш отдельных подписок.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Dispatcher планирует напоминание для новой подписки.
type Dispatcher interface {
	Dispatch(ctx context.Context, subscriptionID string) reminder.Result
}

// Service - менеджер жизненного цикла подписок.
type Service struct {
	repo       Repository
	cache      Cache
	cacheTTL   time.Duration
	dispatcher Dispatcher
	validate   *validation.Validator
	metrics    *metrics.Metrics
	log        *slog.Logger
	now        func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, cacheTTL time.Duration, dispatcher Dispatcher,
	m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		cache:      cache,
		cacheTTL:   cacheTTL,
		dispatcher: dispatcher,
		validate:   validation.New(),
		metrics:    m,
		log:        log,
		now:        time.Now,
	}
}

func cacheKey(id string) string {
	return "subscription:" + id
}

// Create создаёт подписку от имени principal и планирует напоминание.
// Владелец и статус берутся с сервера, ошибка планирования не отменяет создание.
func (s *Service) Create(ctx context.Context, principal models.Principal, req models.CreateRequest) (*models.CreateResult, error) {
	const op = "services.subscription.Create"

	sub, err := s.newSubscription(principal, req)
	if err != nil {
		s.metrics.SubscriptionOp("create", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		s.metrics.SubscriptionOp("create", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.SubscriptionOp("create", nil)
	s.log.Info("created new subscription",
		slog.String("subscription_id", sub.ID),
		slog.String("user_id", principal.ID))

	res := s.dispatcher.Dispatch(ctx, sub.ID)
	if res.Outcome == reminder.OutcomeFailed {
		s.log.Warn("reminder was not scheduled",
			slog.String("subscription_id", sub.ID),
			slog.String("reason", res.Reason))
	}

	s.store(ctx, sub)
	return &models.CreateResult{Subscription: sub, WorkflowRunID: res.RunIDPtr()}, nil
}

// ListByOwner возвращает подписки пользователя userID.
// Запрос чужого списка отклоняется до обращения к хранилищу.
func (s *Service) ListByOwner(ctx context.Context, principal models.Principal, userID string) ([]*models.Subscription, error) {
	const op = "services.subscription.ListByOwner"

	if principal.ID == "" || principal.ID != userID {
		return nil, fmt.Errorf("%s: %w: not the owner of this account", op, apperr.ErrForbidden)
	}
	subs, err := s.repo.SubscriptionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// Get возвращает подписку владельцу.
func (s *Service) Get(ctx context.Context, principal models.Principal, id string) (*models.Subscription, error) {
	const op = "services.subscription.Get"

	sub, err := s.loadOwned(ctx, principal, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// Edit применяет к подписке только присутствующие в запросе поля.
// Подписки в конечном состоянии не редактируются.
func (s *Service) Edit(ctx context.Context, principal models.Principal, id string, req models.EditRequest) (*models.Subscription, error) {
	const op = "services.subscription.Edit"

	sub, err := s.mutate(ctx, principal, id, "edit", func(sub *models.Subscription) error {
		if sub.Status.Terminal() {
			return apperr.Conflict(fmt.Sprintf("subscription is %s and can no longer be edited", sub.Status))
		}
		applyEdit(sub, req)
		return s.validate.Struct(sub)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// Cancel переводит подписку в состояние cancelled.
// Для пробной подписки фиксируется дата отмены.
func (s *Service) Cancel(ctx context.Context, principal models.Principal, id string) (*models.Subscription, error) {
	const op = "services.subscription.Cancel"

	sub, err := s.mutate(ctx, principal, id, "cancel", func(sub *models.Subscription) error {
		switch sub.Status {
		case models.StatusCancelled:
			return apperr.Conflict("subscription is already cancelled")
		case models.StatusExpired:
			return apperr.Conflict("subscription is expired and cannot be cancelled")
		}
		sub.Status = models.StatusCancelled
		if sub.IsTrial {
			now := s.now().UTC()
			sub.TrialInfo.CancellationDate = &now
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// Delete удаляет подписку и возвращает её идентификатор.
func (s *Service) Delete(ctx context.Context, principal models.Principal, id string) (string, error) {
	const op = "services.subscription.Delete"

	sub, err := s.loadOwned(ctx, principal, id)
	if err != nil {
		s.metrics.SubscriptionOp("delete", err)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	err = s.repo.DeleteSubscription(ctx, sub.ID)
	s.metrics.SubscriptionOp("delete", err)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, sub.ID)
	s.log.Info("deleted subscription", slog.String("subscription_id", sub.ID))
	return sub.ID, nil
}

// mutate загружает подписку, проверяет владельца, применяет change и сохраняет результат.
// Между проверкой и записью нет блокировки: параллельные изменения одной записи разрешает хранилище.
func (s *Service) mutate(ctx context.Context, principal models.Principal, id, operation string,
	change func(sub *models.Subscription) error) (*models.Subscription, error) {
	sub, err := s.loadOwned(ctx, principal, id)
	if err == nil {
		err = change(sub)
	}
	if err == nil {
		err = s.repo.UpdateSubscription(ctx, sub)
	}
	s.metrics.SubscriptionOp(operation, err)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, sub.ID)
	s.log.Info("updated subscription",
		slog.String("subscription_id", sub.ID),
		slog.String("operation", operation),
		slog.String("status", string(sub.Status)))
	return sub, nil
}

// loadOwned читает подписку (сначала из кэша) и проверяет, что principal её владелец.
func (s *Service) loadOwned(ctx context.Context, principal models.Principal, id string) (*models.Subscription, error) {
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ownership.Authorize(sub.User, principal.ID).Err(); err != nil {
		s.log.Warn("ownership check failed",
			slog.String("subscription_id", id),
			slog.String("user_id", principal.ID))
		return nil, err
	}
	return sub, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Subscription, error) {
	var cached models.Subscription
	found, err := s.cache.Get(ctx, cacheKey(id), &cached)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey(id)), sl.Err(err))
	}
	if found && err == nil {
		return &cached, nil
	}

	sub, err := s.repo.SubscriptionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, sub)
	return sub, nil
}

func (s *Service) store(ctx context.Context, sub *models.Subscription) {
	if err := s.cache.Set(ctx, cacheKey(sub.ID), sub, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey(sub.ID)), sl.Err(err))
	}
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", cacheKey(id)), sl.Err(err))
	}
}
