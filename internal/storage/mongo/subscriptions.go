package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/magabrotheeeer/subscription-tracker/internal/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// CreateSubscription сохраняет подписку и заполняет метки времени.
func (s *Storage) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	const op = "storage.mongo.CreateSubscription"

	ts := now()
	sub.CreatedAt, sub.UpdatedAt = ts, ts
	if _, err := s.subscriptions.InsertOne(ctx, sub); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SubscriptionByID возвращает подписку по идентификатору.
func (s *Storage) SubscriptionByID(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "storage.mongo.SubscriptionByID"

	var sub models.Subscription
	err := s.subscriptions.FindOne(ctx, bson.M{"_id": id}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// SubscriptionsByUser возвращает все подписки пользователя в порядке создания.
func (s *Storage) SubscriptionsByUser(ctx context.Context, userID string) ([]*models.Subscription, error) {
	const op = "storage.mongo.SubscriptionsByUser"

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.subscriptions.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cursor.Close(ctx)

	result := make([]*models.Subscription, 0)
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateSubscription перезаписывает изменяемые поля подписки и обновляет updated_at.
// Владелец и created_at не меняются.
func (s *Storage) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	const op = "storage.mongo.UpdateSubscription"

	ts := now()
	update := bson.M{"$set": bson.M{
		"name":           sub.Name,
		"price":          sub.Price,
		"currency":       sub.Currency,
		"frequency":      sub.Frequency,
		"category":       sub.Category,
		"website_url":    sub.WebsiteURL,
		"start_date":     sub.StartDate,
		"payment_method": sub.PaymentMethod,
		"status":         sub.Status,
		"is_trial":       sub.IsTrial,
		"trial_info":     sub.TrialInfo,
		"updated_at":     ts,
	}}
	res, err := s.subscriptions.UpdateOne(ctx, bson.M{"_id": sub.ID}, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	sub.UpdatedAt = ts
	return nil
}

// DeleteSubscription удаляет подписку без возможности восстановления.
func (s *Storage) DeleteSubscription(ctx context.Context, id string) error {
	const op = "storage.mongo.DeleteSubscription"

	res, err := s.subscriptions.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}
