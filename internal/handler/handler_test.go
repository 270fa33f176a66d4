package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/escalation-service/internal/errs"
	"github.com/psds-microservice/escalation-service/internal/handler"
	"github.com/psds-microservice/escalation-service/internal/knowledge"
	"github.com/psds-microservice/escalation-service/internal/model"
	"github.com/psds-microservice/escalation-service/internal/router"
	"github.com/psds-microservice/escalation-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memStore struct {
	mu      sync.Mutex
	tickets map[primitive.ObjectID]*model.Ticket
}

func newMemStore() *memStore {
	return &memStore{tickets: make(map[primitive.ObjectID]*model.Ticket)}
}

func (m *memStore) Insert(_ context.Context, t *model.Ticket) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid := primitive.NewObjectID()
	t.ID = oid
	cp := *t
	m.tickets[oid] = &cp
	return oid, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*model.Ticket, error) {
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

func (m *memStore) List(_ context.Context) ([]model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Ticket{}
	for _, t := range m.tickets {
		out = append(out, *t)
	}
	return out, nil
}

func (m *memStore) UpdateByID(_ context.Context, id string, extraFilter bson.M, set bson.M) (int64, int64, error) {
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
			t.ResolvedAt = &ts
			modified = 1
		}
	}
	return 1, modified, nil
}

type memLogs struct {
	mu      sync.Mutex
	entries []model.LowScoreLog
}

func (m *memLogs) Insert(_ context.Context, e *model.LowScoreLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memLogs) List(_ context.Context) ([]model.LowScoreLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.LowScoreLog{}, m.entries...), nil
}

func (m *memLogs) DeleteOne(_ context.Context, email, question string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.Email == email && e.Question == question {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return errs.ErrLogNotFound
}

type stubSearch struct {
	hits []knowledge.Hit
	err  error
}

func (s *stubSearch) Search(_ context.Context, _ string) ([]knowledge.Hit, error) {
	return s.hits, s.err
}

type env struct {
	store  *memStore
	logs   *memLogs
	search *stubSearch
	router http.Handler
}

func newEnv() *env {
	st := newMemStore()
	logs := &memLogs{}
	search := &stubSearch{}
	h := router.Handlers{
		Chat:     handler.NewChatHandler(service.NewEscalationService(st, search, nil, 0.5)),
		Ticket:   handler.NewTicketHandler(service.NewTicketService(st, nil)),
		LowScore: handler.NewLowScoreHandler(service.NewLowScoreService(search, logs, 0.1)),
	}
	return &env{store: st, logs: logs, search: search, router: router.New(h)}
}

func (e *env) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func TestChatEscalatesAndRoundTrips(t *testing.T) {
	e := newEnv()

	w, body := e.do(t, http.MethodPost, "/chat", gin.H{
		"question": "What is the refund policy?",
		"contact":  "user@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sorry, I couldn't find anything relevant. Your query has been escalated.", body["answer"])
	ticketID, _ := body["ticket_id"].(string)
	require.Len(t, ticketID, 24)

	w, body = e.do(t, http.MethodGet, "/tickets/"+ticketID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Open", body["status"])
	assert.Equal(t, "What is the refund policy?", body["query"])
	assert.Equal(t, "anonymous", body["user_name"])
	assert.Equal(t, "user@example.com", body["contact"])
	assert.Equal(t, "normal", body["priority"])
	assert.Nil(t, body["response"])
}

func TestChatDirectAnswerCreatesNoTicket(t *testing.T) {
	e := newEnv()
	e.search.hits = []knowledge.Hit{{ChunkText: "Refunds take seven days.", Score: 0.81}}

	w, body := e.do(t, http.MethodPost, "/chat", gin.H{"question": "What is the refund policy?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Refunds take seven days.", body["answer"])
	assert.Equal(t, 0.81, body["score"])
	assert.NotContains(t, body, "ticket_id")

	w, _ = e.do(t, http.MethodGet, "/tickets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestChatTicketStatusLookup(t *testing.T) {
	e := newEnv()
	oid, err := e.store.Insert(context.Background(), &model.Ticket{
		Status:    model.TicketStatusInProgress,
		Priority:  "high",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	_, body := e.do(t, http.MethodPost, "/chat", gin.H{
		"question": "any update on " + oid.Hex() + "?",
	})
	answer, _ := body["answer"].(string)
	assert.Contains(t, answer, "Ticket ID: "+oid.Hex())
	assert.Contains(t, answer, "Status: In Progress")
}

func TestChatUnknownTicketID(t *testing.T) {
	e := newEnv()
	w, body := e.do(t, http.MethodPost, "/chat", gin.H{
		"question": "status of 64b2f0c8e13a9d5f7a1c2b3d",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sorry, I could not find any ticket with that ID.", body["answer"])
	assert.NotContains(t, body, "ticket_id")
}

func TestChatMissingQuestion(t *testing.T) {
	e := newEnv()
	w, _ := e.do(t, http.MethodPost, "/chat", gin.H{"user_name": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTicketErrors(t *testing.T) {
	e := newEnv()

	w, _ := e.do(t, http.MethodGet, "/tickets/not-hex", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.do(t, http.MethodGet, "/tickets/64b2f0c8e13a9d5f7a1c2b3d", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolveEndpoint(t *testing.T) {
	e := newEnv()
	oid, err := e.store.Insert(context.Background(), &model.Ticket{Status: model.TicketStatusOpen, CreatedAt: time.Now().UTC()})
	require.NoError(t, err)

	w, body := e.do(t, http.MethodPost, "/tickets/"+oid.Hex()+"/resolve", gin.H{"response": "done"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ticket resolved", body["message"])

	// неизвестный id: всё ещё 200, но с полем error
	w, body = e.do(t, http.MethodPost, "/tickets/64b2f0c8e13a9d5f7a1c2b3d/resolve", gin.H{"response": "done"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ticket not found", body["error"])
}

func TestUpdateStatusEndpoint(t *testing.T) {
	e := newEnv()
	oid, err := e.store.Insert(context.Background(), &model.Ticket{Status: model.TicketStatusOpen, CreatedAt: time.Now().UTC()})
	require.NoError(t, err)

	w, body := e.do(t, http.MethodPost, "/tickets/"+oid.Hex()+"/update-status", gin.H{"status": "Closed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ticket status updated to 'Closed'", body["message"])

	w, body = e.do(t, http.MethodPost, "/tickets/"+oid.Hex()+"/update-status", gin.H{"status": "Done"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body["error"], "Invalid status")
}

func TestStartWorkEndpoint(t *testing.T) {
	e := newEnv()
	oid, err := e.store.Insert(context.Background(), &model.Ticket{Status: model.TicketStatusOpen, CreatedAt: time.Now().UTC()})
	require.NoError(t, err)

	w, body := e.do(t, http.MethodPost, "/tickets/"+oid.Hex()+"/start-work", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ticket status updated to 'In Progress'", body["message"])

	w, body = e.do(t, http.MethodPost, "/tickets/"+oid.Hex()+"/start-work", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ticket not found or already in progress or resolved", body["error"])
}

func TestAskEndpoint(t *testing.T) {
	e := newEnv()

	w, body := e.do(t, http.MethodPost, "/ask", gin.H{"question": "obscure"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["escalate"])

	e.search.hits = []knowledge.Hit{{ChunkText: "answer text", Score: 0.3}}
	w, body = e.do(t, http.MethodPost, "/ask", gin.H{"question": "known"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "answer text", body["answer"])
	assert.NotContains(t, body, "escalate")
}

func TestLowScoreLogEndpoints(t *testing.T) {
	e := newEnv()

	w, body := e.do(t, http.MethodPost, "/log_low_score_query", gin.H{
		"question": "obscure question",
		"email":    "a@example.com",
		"score":    0.07,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Query logged successfully", body["message"])

	w, _ = e.do(t, http.MethodGet, "/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []model.LowScoreLog
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "a@example.com", entries[0].Email)

	q := url.Values{"email": {"a@example.com"}, "question": {"obscure question"}}
	w, body = e.do(t, http.MethodDelete, "/log?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Log entry deleted", body["message"])

	w, _ = e.do(t, http.MethodDelete, "/log?"+q.Encode(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteLogRequiresParams(t *testing.T) {
	e := newEnv()
	w, _ := e.do(t, http.MethodDelete, "/log", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestIDHeader(t *testing.T) {
	e := newEnv()
	w, _ := e.do(t, http.MethodGet, "/tickets", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}
