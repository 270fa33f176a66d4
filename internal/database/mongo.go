package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionTickets      = "tickets"
	CollectionLowScoreLogs = "low_score_logs"
)

// Open подключается к Mongo и проверяет соединение ping-ом.
func Open(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes создаёт индексы на старте (аналог подготовки схемы перед
// запуском API). Повторный вызов — no-op на стороне Mongo.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	tickets := db.Collection(CollectionTickets)
	if _, err := tickets.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("tickets indexes: %w", err)
	}

	logs := db.Collection(CollectionLowScoreLogs)
	if _, err := logs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}, {Key: "question", Value: 1}},
	}); err != nil {
		return fmt.Errorf("low_score_logs index: %w", err)
	}

	log.Println("database: indexes ok")
	return nil
}
