package store

import (
	"context"
	"fmt"

	"github.com/psds-microservice/escalation-service/internal/database"
	"github.com/psds-microservice/escalation-service/internal/errs"
	"github.com/psds-microservice/escalation-service/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// LowScoreLogStorer — контракт стора логов низкой уверенности.
type LowScoreLogStorer interface {
	Insert(ctx context.Context, e *model.LowScoreLog) error
	List(ctx context.Context) ([]model.LowScoreLog, error)
	DeleteOne(ctx context.Context, email, question string) error
}

type LowScoreLogStore struct {
	col *mongo.Collection
}

func NewLowScoreLogStore(db *mongo.Database) *LowScoreLogStore {
	return &LowScoreLogStore{col: db.Collection(database.CollectionLowScoreLogs)}
}

func (s *LowScoreLogStore) Insert(ctx context.Context, e *model.LowScoreLog) error {
	if _, err := s.col.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert low score log: %w", err)
	}
	return nil
}

func (s *LowScoreLogStore) List(ctx context.Context) ([]model.LowScoreLog, error) {
	cur, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list low score logs: %w", err)
	}
	defer cur.Close(ctx)
	items := []model.LowScoreLog{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode low score logs: %w", err)
	}
	return items, nil
}

// DeleteOne удаляет одну запись по паре (email, question). Если записей с такой
// парой несколько, удаляется произвольная из них.
func (s *LowScoreLogStore) DeleteOne(ctx context.Context, email, question string) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"email": email, "question": question})
	if err != nil {
		return fmt.Errorf("delete low score log: %w", err)
	}
	if res.DeletedCount == 0 {
		return errs.ErrLogNotFound
	}
	return nil
}
