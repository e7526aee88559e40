package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "users"

type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        *slog.Logger
}

func NewMongoStorage(uri, database string, log *slog.Logger) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	collection := client.Database(database).Collection(collectionName)

	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Warn("creating index", slog.String("error", err.Error()))
	}

	return &MongoStorage{
		client:     client,
		collection: collection,
		log:        log,
	}, nil
}

func (m *MongoStorage) GetUser(ctx context.Context, userId int64) (*UserRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var user UserRecord
	err := m.collection.FindOne(ctx, bson.M{"user_id": userId}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return &user, nil
}

func (m *MongoStorage) UpsertUser(ctx context.Context, user *UserRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	update := bson.M{
		"$set": bson.M{
			"username":       user.Username,
			"first_name":     user.FirstName,
			"last_name":      user.LastName,
			"daily_requests": user.DailyRequests,
			"total_requests": user.TotalRequests,
			"last_active_at": now,
		},
		"$setOnInsert": bson.M{
			"user_id":    user.UserId,
			"created_at": createdAt,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	var stored UserRecord
	err := m.collection.FindOneAndUpdate(ctx, bson.M{"user_id": user.UserId}, update, opts).Decode(&stored)
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	user.CreatedAt = stored.CreatedAt
	user.LastActiveAt = stored.LastActiveAt
	return nil
}

func (m *MongoStorage) IncrementRequests(ctx context.Context, userId int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{
			"daily_requests": 1,
			"total_requests": 1,
		},
		"$set": bson.M{
			"last_active_at": time.Now().UTC(),
		},
	}
	res, err := m.collection.UpdateOne(ctx, bson.M{"user_id": userId}, update)
	if err != nil {
		return fmt.Errorf("incrementing requests: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (m *MongoStorage) ResetDaily(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := m.collection.UpdateMany(ctx, bson.M{}, bson.M{"$set": bson.M{"daily_requests": 0}})
	if err != nil {
		return 0, fmt.Errorf("resetting daily requests: %w", err)
	}
	return res.MatchedCount, nil
}

func (m *MongoStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
