package service

import (
	"context"
	"fmt"
	"time"

	"github.com/psds-microservice/escalation-service/internal/knowledge"
	"github.com/psds-microservice/escalation-service/internal/model"
	"github.com/psds-microservice/escalation-service/internal/store"
)

const msgAskEscalate = "Sorry, I couldn't find anything relevant. Please submit your email so we can follow up."

// AskResult — исход легаси-потока /ask. Escalate=true означает, что вызывающий
// должен вторым запросом залогировать вопрос вместе со своим email.
type AskResult struct {
	Answer   string
	Score    float64
	Escalate bool
}

// LowScoreService — легаси-вариант эскалации: тот же поиск, но с низким порогом
// и двухшаговой эскалацией (спросить, затем явно залогировать). Тикеты здесь
// не создаются никогда.
type LowScoreService struct {
	search    knowledge.Searcher
	logs      store.LowScoreLogStorer
	threshold float64
}

func NewLowScoreService(search knowledge.Searcher, logs store.LowScoreLogStorer, threshold float64) *LowScoreService {
	return &LowScoreService{search: search, logs: logs, threshold: threshold}
}

func (s *LowScoreService) Ask(ctx context.Context, question string) (*AskResult, error) {
	hits, err := s.search.Search(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("knowledge search: %w", err)
	}
	if len(hits) == 0 {
		return &AskResult{Answer: msgAskEscalate, Score: 0, Escalate: true}, nil
	}
	if hits[0].Score < s.threshold {
		return &AskResult{Answer: msgAskEscalate, Score: hits[0].Score, Escalate: true}, nil
	}
	return &AskResult{Answer: hits[0].ChunkText, Score: hits[0].Score}, nil
}

func (s *LowScoreService) Log(ctx context.Context, question, email string, score float64) error {
	return s.logs.Insert(ctx, &model.LowScoreLog{
		Question:  question,
		Email:     email,
		Score:     score,
		Timestamp: time.Now().UTC(),
	})
}

func (s *LowScoreService) List(ctx context.Context) ([]model.LowScoreLog, error) {
	return s.logs.List(ctx)
}

func (s *LowScoreService) Delete(ctx context.Context, email, question string) error {
	return s.logs.DeleteOne(ctx, email, question)
}
