package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato-saldanha/talk-to-api/internal/events"
	"github.com/renato-saldanha/talk-to-api/internal/funnel"
	"github.com/renato-saldanha/talk-to-api/internal/model"
	"github.com/renato-saldanha/talk-to-api/internal/service"
	"github.com/renato-saldanha/talk-to-api/internal/session"
	"github.com/renato-saldanha/talk-to-api/internal/store"
	"github.com/renato-saldanha/talk-to-api/pkg/logger"
)

const testPhone = "+5511999990000"

// memoryStore is a minimal in-memory ConversationStore for handler tests.
type memoryStore struct {
	conv     *model.Conversation
	messages []model.Message
}

func (m *memoryStore) FindOrCreate(_ context.Context, phoneNumber string) (*model.Conversation, bool, error) {
	if m.conv != nil {
		c := *m.conv
		return &c, false, nil
	}
	m.conv = &model.Conversation{
		ID:           "conv-1",
		PhoneNumber:  phoneNumber,
		Status:       model.StatusActive,
		FunnelStep:   model.StepCollectName,
		LastActivity: time.Now(),
		CreatedAt:    time.Now(),
	}
	c := *m.conv
	return &c, true, nil
}

func (m *memoryStore) Find(context.Context, string) (*model.Conversation, error) {
	if m.conv == nil {
		return nil, store.ErrNotFound
	}
	c := *m.conv
	return &c, nil
}

func (m *memoryStore) Update(_ context.Context, _ string, update model.ConversationUpdate) (*model.Conversation, error) {
	if update.Status != nil {
		m.conv.Status = *update.Status
	}
	if update.FunnelStep != nil {
		m.conv.FunnelStep = *update.FunnelStep
	}
	if update.Fields != nil {
		m.conv.Fields = *update.Fields
	}
	if update.FinishedAt != nil {
		m.conv.FinishedAt = update.FinishedAt
	}
	c := *m.conv
	return &c, nil
}

func (m *memoryStore) SetStatus(_ context.Context, _ string, status model.Status) error {
	m.conv.Status = status
	return nil
}

func (m *memoryStore) AppendMessage(_ context.Context, conversationID string, role model.Role, content string) (*model.Message, error) {
	msg := model.Message{
		ID:             "msg",
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	m.messages = append(m.messages, msg)
	return &msg, nil
}

func (m *memoryStore) ListMessages(context.Context, string) ([]model.Message, error) {
	return m.messages, nil
}

func (m *memoryStore) List(context.Context, int, int) ([]model.Conversation, int, error) {
	if m.conv == nil {
		return nil, 0, nil
	}
	return []model.Conversation{*m.conv}, 1, nil
}

// staticEngine replies with a fixed turn result.
type staticEngine struct {
	result funnel.TurnState
}

func (s *staticEngine) Run(_ context.Context, st funnel.TurnState) funnel.TurnState {
	result := s.result
	result.PhoneNumber = st.PhoneNumber
	return result
}

func newTestRouter(st *memoryStore, engine service.TurnEngine) chi.Router {
	svc := service.NewConversationService(st, engine, session.NewPolicy(15), events.NopPublisher{}, logger.NewNop())
	conversationHandler := NewConversationHandler(svc, logger.NewNop())
	adminHandler := NewAdminHandler(svc, logger.NewNop())

	r := chi.NewRouter()
	r.Post("/api/v1/conversations/{phoneNumber}/messages", conversationHandler.SubmitMessage)
	r.Get("/api/v1/conversations/{phoneNumber}/status", conversationHandler.GetStatus)
	r.Get("/api/v1/admin/conversations", adminHandler.ListConversations)
	r.Get("/api/v1/admin/conversations/{phoneNumber}", adminHandler.GetTranscript)
	return r
}

func postMessage(t *testing.T, router chi.Router, phone, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/"+phone+"/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitMessageEndpoint(t *testing.T) {
	engine := &staticEngine{result: funnel.TurnState{
		Step:  model.StepCollectName,
		Reply: "Olá! Qual é o seu nome?",
	}}
	router := newTestRouter(&memoryStore{}, engine)

	rec := postMessage(t, router, testPhone, `{"content": "oi"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.SubmitMessageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Olá! Qual é o seu nome?", resp.Reply)
	assert.Equal(t, model.StatusActive, resp.Conversation.Status)
	assert.Equal(t, model.StepCollectName, resp.Conversation.FunnelStep)
}

func TestSubmitMessageRejectsBadInput(t *testing.T) {
	router := newTestRouter(&memoryStore{}, &staticEngine{})

	tests := []struct {
		name  string
		phone string
		body  string
	}{
		{name: "invalid phone number", phone: "abc", body: `{"content": "oi"}`},
		{name: "empty content", phone: testPhone, body: `{"content": ""}`},
		{name: "malformed body", phone: testPhone, body: `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postMessage(t, router, tt.phone, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSubmitMessageConflictOnFinishedConversation(t *testing.T) {
	st := &memoryStore{
		conv: &model.Conversation{
			ID:           "conv-1",
			PhoneNumber:  testPhone,
			Status:       model.StatusQualified,
			FunnelStep:   model.StepQualified,
			LastActivity: time.Now(),
		},
	}
	router := newTestRouter(st, &staticEngine{})

	rec := postMessage(t, router, testPhone, `{"content": "oi"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitMessageConflictOnExpiredConversation(t *testing.T) {
	st := &memoryStore{
		conv: &model.Conversation{
			ID:           "conv-1",
			PhoneNumber:  testPhone,
			Status:       model.StatusActive,
			FunnelStep:   model.StepCollectName,
			LastActivity: time.Now().Add(-time.Hour),
		},
	}
	router := newTestRouter(st, &staticEngine{})

	rec := postMessage(t, router, testPhone, `{"content": "oi"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetStatusEndpoint(t *testing.T) {
	name := "Maria"
	st := &memoryStore{
		conv: &model.Conversation{
			ID:           "conv-1",
			PhoneNumber:  testPhone,
			Status:       model.StatusActive,
			FunnelStep:   model.StepCollectBirthDate,
			Fields:       model.Fields{Name: &name},
			LastActivity: time.Now(),
		},
	}
	router := newTestRouter(st, &staticEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/"+testPhone+"/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot model.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snapshot))
	assert.Equal(t, model.StepCollectBirthDate, snapshot.FunnelStep)
	assert.Equal(t, "Maria", *snapshot.Fields.Name)
}

func TestGetStatusNotFound(t *testing.T) {
	router := newTestRouter(&memoryStore{}, &staticEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/"+testPhone+"/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListConversationsEndpoint(t *testing.T) {
	st := &memoryStore{
		conv: &model.Conversation{
			ID:          "conv-1",
			PhoneNumber: testPhone,
			Status:      model.StatusActive,
			FunnelStep:  model.StepCollectName,
		},
	}
	router := newTestRouter(st, &staticEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/conversations?limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ListConversationsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Total)
	assert.Len(t, resp.Conversations, 1)
}

func TestGetTranscriptEndpoint(t *testing.T) {
	st := &memoryStore{
		conv: &model.Conversation{
			ID:          "conv-1",
			PhoneNumber: testPhone,
			Status:      model.StatusActive,
			FunnelStep:  model.StepCollectName,
		},
		messages: []model.Message{
			{ID: "msg-1", ConversationID: "conv-1", Role: model.RoleUser, Content: "oi"},
			{ID: "msg-2", ConversationID: "conv-1", Role: model.RoleAssistant, Content: "Olá!"},
		},
	}
	router := newTestRouter(st, &staticEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/conversations/"+testPhone, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.TranscriptResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Messages, 2)
	assert.Equal(t, testPhone, resp.Conversation.PhoneNumber)
}
