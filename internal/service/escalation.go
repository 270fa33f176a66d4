package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/psds-microservice/escalation-service/internal/errs"
	"github.com/psds-microservice/escalation-service/internal/kafka"
	"github.com/psds-microservice/escalation-service/internal/knowledge"
	"github.com/psds-microservice/escalation-service/internal/model"
	"github.com/psds-microservice/escalation-service/internal/store"
)

// Идентификатор тикета — 24 hex-символа (нативный формат стора). Берём первое
// совпадение в тексте вопроса: так один эндпоинт обслуживает и новый вопрос,
// и «что с моим тикетом <id>» без отдельного роутинга.
var ticketIDPattern = regexp.MustCompile(`\b[0-9a-fA-F]{24}\b`)

const (
	msgTicketNotFound = "Sorry, I could not find any ticket with that ID."
	msgEscalated      = "Sorry, I couldn't find anything relevant. Your query has been escalated."
)

type ResultKind int

const (
	KindTicketStatus ResultKind = iota
	KindDirectAnswer
	KindEscalated
	KindNotFound
)

// Result — исход обработки вопроса движком эскалации.
type Result struct {
	Kind     ResultKind
	Answer   string
	Score    float64
	TicketID string
}

// Question — входные данные /chat.
type Question struct {
	Text     string
	UserName string
	Contact  *string
	Priority string
}

// EscalationService — ядро решения: ответить напрямую, показать статус тикета
// или завести новый тикет.
type EscalationService struct {
	tickets   store.TicketStorer
	search    knowledge.Searcher
	producer  kafka.TicketEventProducer
	threshold float64
}

func NewEscalationService(tickets store.TicketStorer, search knowledge.Searcher, producer kafka.TicketEventProducer, threshold float64) *EscalationService {
	return &EscalationService{tickets: tickets, search: search, producer: producer, threshold: threshold}
}

func (s *EscalationService) Handle(ctx context.Context, q Question) (*Result, error) {
	if id := ticketIDPattern.FindString(q.Text); id != "" {
		return s.answerTicketStatus(ctx, id)
	}

	hits, err := s.search.Search(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("knowledge search: %w", err)
	}
	if len(hits) == 0 || hits[0].Score < s.threshold {
		return s.escalate(ctx, q)
	}
	return &Result{
		Kind:   KindDirectAnswer,
		Answer: hits[0].ChunkText,
		Score:  hits[0].Score,
	}, nil
}

func (s *EscalationService) answerTicketStatus(ctx context.Context, id string) (*Result, error) {
	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			return &Result{Kind: KindNotFound, Answer: msgTicketNotFound}, nil
		}
		// ErrInvalidTicketID и сбои стора отдаём наверх, хендлер разберётся.
		return nil, err
	}
	status := string(t.Status)
	if status == "" {
		status = "Unknown"
	}
	priority := t.Priority
	if priority == "" {
		priority = "N/A"
	}
	response := "Not yet responded"
	if t.Response != nil && *t.Response != "" {
		response = *t.Response
	}
	answer := fmt.Sprintf("Ticket ID: %s\nStatus: %s\nPriority: %s\nCreated At: %s\nResponse: %s",
		id, status, priority, t.CreatedAt.UTC().Format(time.RFC3339), response)
	return &Result{Kind: KindTicketStatus, Answer: answer, TicketID: id}, nil
}

func (s *EscalationService) escalate(ctx context.Context, q Question) (*Result, error) {
	t := &model.Ticket{
		UserName:       q.UserName,
		Contact:        q.Contact,
		Query:          q.Text,
		Priority:       q.Priority,
		Status:         model.TicketStatusOpen,
		CreatedAt:      time.Now().UTC(),
		Response:       nil,
		ChatTranscript: []string{q.Text},
	}
	oid, err := s.tickets.Insert(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("escalate: %w", err)
	}
	produceAsync(s.producer, "ticket.created", ticketEventPayload(t))
	return &Result{Kind: KindEscalated, Answer: msgEscalated, TicketID: oid.Hex()}, nil
}
