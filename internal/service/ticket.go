package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/psds-microservice/escalation-service/internal/errs"
	"github.com/psds-microservice/escalation-service/internal/kafka"
	"github.com/psds-microservice/escalation-service/internal/model"
	"github.com/psds-microservice/escalation-service/internal/store"
	"go.mongodb.org/mongo-driver/bson"
)

// TicketService — чтение тикетов и переходы жизненного цикла
// (Open → In Progress → Resolved/Closed).
type TicketService struct {
	store    store.TicketStorer
	producer kafka.TicketEventProducer
}

func NewTicketService(st store.TicketStorer, producer kafka.TicketEventProducer) *TicketService {
	return &TicketService{store: st, producer: producer}
}

func (s *TicketService) Get(ctx context.Context, id string) (*model.Ticket, error) {
	return s.store.GetByID(ctx, id)
}

func (s *TicketService) List(ctx context.Context) ([]model.Ticket, error) {
	return s.store.List(ctx)
}

// Resolve безусловно переводит тикет в Resolved: response и resolved_at
// выставляются вместе, одним $set. Повторный Resolve перезаписывает оба поля
// и тоже успешен.
func (s *TicketService) Resolve(ctx context.Context, id, response string) error {
	id = strings.TrimSpace(id)
	matched, _, err := s.store.UpdateByID(ctx, id, nil, bson.M{
		"status":      model.TicketStatusResolved,
		"response":    response,
		"resolved_at": time.Now().UTC(),
	})
	if err != nil {
		return maskInvalidID(err)
	}
	if matched == 0 {
		return errs.ErrTicketNotFound
	}
	produceAsync(s.producer, "ticket.resolved", map[string]interface{}{
		"ticket_id": id,
		"status":    string(model.TicketStatusResolved),
	})
	return nil
}

// SetStatus — прямой админский перевод в любой из четырёх статусов,
// без оглядки на текущее состояние.
func (s *TicketService) SetStatus(ctx context.Context, id, status string) error {
	if !model.ValidStatus(status) {
		return errs.ErrInvalidStatus
	}
	id = strings.TrimSpace(id)
	_, modified, err := s.store.UpdateByID(ctx, id, nil, bson.M{"status": status})
	if err != nil {
		return maskInvalidID(err)
	}
	if modified == 0 {
		return errs.ErrTicketNotFound
	}
	produceAsync(s.producer, "ticket.status_updated", map[string]interface{}{
		"ticket_id": id,
		"status":    status,
	})
	return nil
}

// StartWork переводит Open → In Progress. Условие «текущий статус Open» — часть
// фильтра UpdateOne, то есть атомарный check-and-set на стороне стора.
// Любой другой текущий статус неотличим от «не найден» для вызывающего.
func (s *TicketService) StartWork(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	_, modified, err := s.store.UpdateByID(ctx, id,
		bson.M{"status": model.TicketStatusOpen},
		bson.M{"status": model.TicketStatusInProgress},
	)
	if err != nil {
		return maskInvalidID(err)
	}
	if modified == 0 {
		return errs.ErrTicketNotFound
	}
	produceAsync(s.producer, "ticket.started", map[string]interface{}{
		"ticket_id": id,
		"status":    string(model.TicketStatusInProgress),
	})
	return nil
}

// maskInvalidID: эндпоинты жизненного цикла не различают «кривой id» и
// «нет такого тикета» — обе ситуации для них not found.
func maskInvalidID(err error) error {
	if errors.Is(err, errs.ErrInvalidTicketID) {
		return errs.ErrTicketNotFound
	}
	return err
}
