package service

import (
	"context"
	"time"

	"github.com/psds-microservice/escalation-service/internal/kafka"
	"github.com/psds-microservice/escalation-service/internal/model"
)

func ticketEventPayload(t *model.Ticket) map[string]interface{} {
	if t == nil {
		return nil
	}
	return map[string]interface{}{
		"ticket_id": t.ID.Hex(),
		"user_name": t.UserName,
		"query":     t.Query,
		"priority":  t.Priority,
		"status":    string(t.Status),
	}
}

// produceAsync отправляет событие в отдельной горутине (не блокирует ответ API).
func produceAsync(p kafka.TicketEventProducer, event string, payload map[string]interface{}) {
	if p == nil || payload == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		p.ProduceTicketEvent(ctx, event, payload)
	}()
}
