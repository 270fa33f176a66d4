package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/psds-microservice/escalation-service/internal/errs"
	"github.com/psds-microservice/escalation-service/internal/knowledge"
	"github.com/psds-microservice/escalation-service/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memTicketStore — стор тикетов в памяти с семантикой Mongo UpdateOne:
// extraFilter по статусу проверяется атомарно, modified считается по
// фактическому изменению полей.
type memTicketStore struct {
	mu      sync.Mutex
	tickets map[primitive.ObjectID]*model.Ticket

	insertErr error
	getErr    error
}

func newMemTicketStore() *memTicketStore {
	return &memTicketStore{tickets: make(map[primitive.ObjectID]*model.Ticket)}
}

func (m *memTicketStore) Insert(_ context.Context, t *model.Ticket) (primitive.ObjectID, error) {
	if m.insertErr != nil {
		return primitive.NilObjectID, m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	oid := primitive.NewObjectID()
	t.ID = oid
	cp := *t
	m.tickets[oid] = &cp
	return oid, nil
}

func (m *memTicketStore) GetByID(_ context.Context, id string) (*model.Ticket, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.ErrInvalidTicketID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[oid]
	if !ok {
		return nil, errs.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTicketStore) List(_ context.Context) ([]model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Ticket{}
	for _, t := range m.tickets {
		out = append(out, *t)
	}
	return out, nil
}

func (m *memTicketStore) UpdateByID(_ context.Context, id string, extraFilter bson.M, set bson.M) (int64, int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, 0, errs.ErrInvalidTicketID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[oid]
	if !ok {
		return 0, 0, nil
	}
	if want, has := extraFilter["status"]; has && fmt.Sprint(want) != string(t.Status) {
		return 0, 0, nil
	}
	var modified int64
	if v, ok := set["status"]; ok {
		if s := model.TicketStatus(fmt.Sprint(v)); s != t.Status {
			t.Status = s
			modified = 1
		}
	}
	if v, ok := set["response"]; ok {
		s := fmt.Sprint(v)
		if t.Response == nil || *t.Response != s {
			t.Response = &s
			modified = 1
		}
	}
	if v, ok := set["resolved_at"]; ok {
		if ts, isTime := v.(time.Time); isTime {
			if t.ResolvedAt == nil || !t.ResolvedAt.Equal(ts) {
				t.ResolvedAt = &ts
				modified = 1
			}
		}
	}
	return 1, modified, nil
}

func (m *memTicketStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickets)
}

type stubSearcher struct {
	hits []knowledge.Hit
	err  error

	calls int
}

func (s *stubSearcher) Search(_ context.Context, _ string) ([]knowledge.Hit, error) {
	s.calls++
	return s.hits, s.err
}
