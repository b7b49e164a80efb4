package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/magabrotheeeer/subscription-tracker/internal/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// CreateUser сохраняет нового пользователя. Повторный email возвращает apperr.ErrEmailTaken.
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	const op = "storage.mongo.CreateUser"

	ts := now()
	user.CreatedAt, user.UpdatedAt = ts, ts
	_, err := s.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, apperr.ErrEmailTaken)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UserByID возвращает пользователя по идентификатору.
func (s *Storage) UserByID(ctx context.Context, id string) (*models.User, error) {
	return s.userBy(ctx, "storage.mongo.UserByID", bson.M{"_id": id})
}

// UserByEmail возвращает пользователя по email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userBy(ctx, "storage.mongo.UserByEmail", bson.M{"email": email})
}

func (s *Storage) userBy(ctx context.Context, op string, filter bson.M) (*models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}
