package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/psds-microservice/escalation-service/internal/database"
	"github.com/psds-microservice/escalation-service/internal/errs"
	"github.com/psds-microservice/escalation-service/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TicketStorer — контракт стора тикетов (для подмены фейком в тестах сервисов).
type TicketStorer interface {
	Insert(ctx context.Context, t *model.Ticket) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
	List(ctx context.Context) ([]model.Ticket, error)
	UpdateByID(ctx context.Context, id string, extraFilter bson.M, set bson.M) (matched, modified int64, err error)
}

type TicketStore struct {
	col *mongo.Collection
}

func NewTicketStore(db *mongo.Database) *TicketStore {
	return &TicketStore{col: db.Collection(database.CollectionTickets)}
}

// ParseID разбирает 24-символьный hex-идентификатор. Неверный формат —
// errs.ErrInvalidTicketID (клиентская ошибка, не 5xx).
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, errs.ErrInvalidTicketID
	}
	return oid, nil
}

func (s *TicketStore) Insert(ctx context.Context, t *model.Ticket) (primitive.ObjectID, error) {
	res, err := s.col.InsertOne(ctx, t)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert ticket: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("insert ticket: unexpected id type %T", res.InsertedID)
	}
	t.ID = oid
	return oid, nil
}

func (s *TicketStore) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var t model.Ticket
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, fmt.Errorf("find ticket %s: %w", id, err)
	}
	return &t, nil
}

// List возвращает все тикеты в естественном порядке коллекции
// (порядок не гарантируется).
func (s *TicketStore) List(ctx context.Context) ([]model.Ticket, error) {
	cur, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer cur.Close(ctx)
	items := []model.Ticket{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode tickets: %w", err)
	}
	return items, nil
}

// UpdateByID применяет $set к тикету. extraFilter добавляется к фильтру по _id —
// так условный переход (например, «только если статус Open») выполняется
// атомарным check-and-set на стороне Mongo, без read-then-write гонки здесь.
func (s *TicketStore) UpdateByID(ctx context.Context, id string, extraFilter bson.M, set bson.M) (int64, int64, error) {
	oid, err := ParseID(id)
	if err != nil {
		return 0, 0, err
	}
	filter := bson.M{"_id": oid}
	for k, v := range extraFilter {
		filter[k] = v
	}
	res, err := s.col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return 0, 0, fmt.Errorf("update ticket %s: %w", id, err)
	}
	return res.MatchedCount, res.ModifiedCount, nil
}
