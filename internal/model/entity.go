package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// ValidStatus проверяет, что строка — один из четырёх статусов тикета.
func ValidStatus(s string) bool {
	switch TicketStatus(s) {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

type Ticket struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserName       string             `bson:"user_name" json:"user_name"`
	Contact        *string            `bson:"contact" json:"contact"`
	Query          string             `bson:"query" json:"query"`
	Priority       string             `bson:"priority" json:"priority"`
	Status         TicketStatus       `bson:"status" json:"status"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	ResolvedAt     *time.Time         `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
	Response       *string            `bson:"response" json:"response"`
	ChatTranscript []string           `bson:"chat_transcript" json:"chat_transcript"`
}

// LowScoreLog — запись о вопросе, на который поиск не нашёл уверенного ответа
// (легаси-вариант эскалации: лог вместо тикета). Идентичность записи для
// удаления — пара (email, question), сгенерированного id нет.
type LowScoreLog struct {
	Question  string    `bson:"question" json:"question"`
	Email     string    `bson:"email" json:"email"`
	Score     float64   `bson:"score" json:"score"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}
