package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

const subscriptionColumns = `id, user_id, name, price, currency, frequency, category, website_url,
	start_date, payment_method, status, is_trial, trial_duration, trial_duration_unit,
	trial_end_date, post_trial_price, auto_convert_to_regular, reminder_sent,
	cancellation_date, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row scanner) (*models.Subscription, error) {
	var (
		sub          models.Subscription
		startDate    time.Time
		trialEndDate sql.NullTime
		cancelledAt  sql.NullTime
	)
	err := row.Scan(&sub.ID, &sub.User, &sub.Name, &sub.Price, &sub.Currency, &sub.Frequency,
		&sub.Category, &sub.WebsiteURL, &startDate, &sub.PaymentMethod, &sub.Status, &sub.IsTrial,
		&sub.TrialInfo.TrialDuration, &sub.TrialInfo.TrialDurationUnit, &trialEndDate,
		&sub.TrialInfo.PostTrialPrice, &sub.TrialInfo.AutoConvertToRegular, &sub.TrialInfo.ReminderSent,
		&cancelledAt, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sub.StartDate = startDate.Format(models.DateLayout)
	if trialEndDate.Valid {
		sub.TrialInfo.TrialEndDate = trialEndDate.Time.Format(models.DateLayout)
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		sub.TrialInfo.CancellationDate = &t
	}
	return &sub, nil
}

func nullDate(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CreateSubscription сохраняет подписку и заполняет метки времени.
func (s *Storage) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	const op = "storage.postgresql.CreateSubscription"

	query := `INSERT INTO subscriptions (id, user_id, name, price, currency, frequency, category,
				website_url, start_date, payment_method, status, is_trial, trial_duration,
				trial_duration_unit, trial_end_date, post_trial_price, auto_convert_to_regular,
				reminder_sent, cancellation_date)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			  RETURNING created_at, updated_at`
	ti := sub.TrialInfo
	err := s.DB.QueryRowContext(ctx, query,
		sub.ID, sub.User, sub.Name, sub.Price, sub.Currency, sub.Frequency, sub.Category,
		sub.WebsiteURL, sub.StartDate, sub.PaymentMethod, sub.Status, sub.IsTrial, ti.TrialDuration,
		ti.TrialDurationUnit, nullDate(ti.TrialEndDate), ti.PostTrialPrice, ti.AutoConvertToRegular,
		ti.ReminderSent, ti.CancellationDate).Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SubscriptionByID возвращает подписку по идентификатору.
func (s *Storage) SubscriptionByID(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "storage.postgresql.SubscriptionByID"
	if !validID(id) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// SubscriptionsByUser возвращает все подписки пользователя в порядке создания.
func (s *Storage) SubscriptionsByUser(ctx context.Context, userID string) ([]*models.Subscription, error) {
	const op = "storage.postgresql.SubscriptionsByUser"
	if !validID(userID) {
		return []*models.Subscription{}, nil
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := make([]*models.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateSubscription перезаписывает изменяемые поля подписки и обновляет updated_at.
// Владелец и created_at не меняются.
func (s *Storage) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	const op = "storage.postgresql.UpdateSubscription"

	query := `UPDATE subscriptions
			  SET name = $1, price = $2, currency = $3, frequency = $4, category = $5,
			      website_url = $6, start_date = $7, payment_method = $8, status = $9,
			      is_trial = $10, trial_duration = $11, trial_duration_unit = $12,
			      trial_end_date = $13, post_trial_price = $14, auto_convert_to_regular = $15,
			      reminder_sent = $16, cancellation_date = $17, updated_at = now()
			  WHERE id = $18
			  RETURNING updated_at`
	ti := sub.TrialInfo
	err := s.DB.QueryRowContext(ctx, query,
		sub.Name, sub.Price, sub.Currency, sub.Frequency, sub.Category, sub.WebsiteURL,
		sub.StartDate, sub.PaymentMethod, sub.Status, sub.IsTrial, ti.TrialDuration,
		ti.TrialDurationUnit, nullDate(ti.TrialEndDate), ti.PostTrialPrice, ti.AutoConvertToRegular,
		ti.ReminderSent, ti.CancellationDate, sub.ID).Scan(&sub.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteSubscription удаляет подписку без возможности восстановления.
func (s *Storage) DeleteSubscription(ctx context.Context, id string) error {
	const op = "storage.postgresql.DeleteSubscription"
	if !validID(id) {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}
