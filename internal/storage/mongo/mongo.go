// Package mongo реализует хранилище пользователей и подписок на MongoDB.
// Набор методов совпадает с postgresql.Storage, драйвер выбирается в конфиге.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	usersCollection         = "users"
	subscriptionsCollection = "subscriptions"

	retryInterval = time.Second
)

// ErrFailedToConnect возвращается, когда все попытки подключения исчерпаны.
var ErrFailedToConnect = errors.New("failed to connect to mongo")

// Storage хранит клиент и коллекции базы.
type Storage struct {
	client        *mongo.Client
	users         *mongo.Collection
	subscriptions *mongo.Collection
}

// New подключается к MongoDB, делая до attempts попыток, и создаёт индексы.
func New(ctx context.Context, uri, database string, attempts int) (*Storage, error) {
	const op = "storage.mongo.New"

	client, err := connect(ctx, uri, attempts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db := client.Database(database)
	s := &Storage{
		client:        client,
		users:         db.Collection(usersCollection),
		subscriptions: db.Collection(subscriptionsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func connect(ctx context.Context, uri string, attempts int) (*mongo.Client, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := range attempts {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Join(ErrFailedToConnect, ctx.Err())
			case <-time.After(retryInterval):
			}
		}
		client, err := mongo.Connect(options.Client().ApplyURI(uri))
		if err != nil {
			lastErr = err
			continue
		}
		if err = client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(ctx)
			lastErr = err
			continue
		}
		return client, nil
	}
	return nil, errors.Join(ErrFailedToConnect, lastErr)
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = s.subscriptions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}

// Ping проверяет доступность сервера.
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close отключает клиента.
func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// now обрезает время до миллисекунд, с которыми BSON хранит даты.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
