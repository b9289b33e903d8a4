// Package service provides the conversation-level orchestration around the
// funnel engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/renato-saldanha/talk-to-api/internal/events"
	"github.com/renato-saldanha/talk-to-api/internal/funnel"
	"github.com/renato-saldanha/talk-to-api/internal/model"
	"github.com/renato-saldanha/talk-to-api/internal/session"
	"github.com/renato-saldanha/talk-to-api/internal/store"
	"github.com/renato-saldanha/talk-to-api/pkg/logger"
	"github.com/renato-saldanha/talk-to-api/pkg/metrics"
)

var (
	// ErrConversationExpired is returned for turns on a lapsed conversation.
	ErrConversationExpired = errors.New("conversation has expired")

	// ErrConversationFinished is returned for turns on a conversation that
	// already reached a qualification outcome.
	ErrConversationFinished = errors.New("conversation is already finished")

	// ErrNotFound is returned when no conversation exists for a phone number.
	ErrNotFound = store.ErrNotFound
)

// TurnEngine runs one funnel turn. Satisfied by *funnel.Engine.
type TurnEngine interface {
	Run(ctx context.Context, st funnel.TurnState) funnel.TurnState
}

// ConversationService orchestrates turns: liveness checks, transcript
// bookkeeping, engine invocation and persistence of the turn's outcome.
type ConversationService struct {
	store     store.ConversationStore
	engine    TurnEngine
	sessions  *session.Policy
	publisher events.Publisher
	logger    *logger.Logger

	// now is swappable for tests.
	now func() time.Time

	// locks serializes turns per phone number. Two simultaneous turns for
	// the same conversation would otherwise race on the store.
	locks sync.Map
}

// NewConversationService creates a new conversation service.
func NewConversationService(
	st store.ConversationStore,
	engine TurnEngine,
	sessions *session.Policy,
	publisher events.Publisher,
	log *logger.Logger,
) *ConversationService {
	return &ConversationService{
		store:     st,
		engine:    engine,
		sessions:  sessions,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// SubmitMessage processes one inbound message for a phone number and returns
// the assistant reply plus the public conversation snapshot.
func (s *ConversationService) SubmitMessage(ctx context.Context, phoneNumber, content string) (string, *model.Snapshot, error) {
	unlock := s.lock(phoneNumber)
	defer unlock()

	start := s.now()
	log := s.logger.WithPhone(phoneNumber)

	conv, created, err := s.store.FindOrCreate(ctx, phoneNumber)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	if created {
		metrics.ConversationsTotal.Inc()
		s.publish(ctx, events.TypeLeadCreated, conv)
		log.Info("conversation created")
	} else {
		conv, err = s.expireIfLapsed(ctx, conv)
		if err != nil {
			return "", nil, err
		}
	}

	if err := checkLiveness(conv); err != nil {
		return "", nil, err
	}

	if _, err := s.store.AppendMessage(ctx, conv.ID, model.RoleUser, content); err != nil {
		return "", nil, fmt.Errorf("failed to append user message: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser)).Inc()

	transcript, err := s.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	result := s.engine.Run(ctx, funnel.TurnState{
		PhoneNumber: phoneNumber,
		Messages:    transcript,
		Fields:      conv.Fields,
		Step:        conv.FunnelStep,
	})

	update := model.ConversationUpdate{
		FunnelStep: &result.Step,
		Fields:     &result.Fields,
	}
	if result.Step.Terminal() {
		status := model.StatusQualified
		if result.Step == model.StepRejected {
			status = model.StatusRejected
		}
		finishedAt := s.now()
		update.Status = &status
		update.FinishedAt = &finishedAt
	}

	updated, err := s.store.Update(ctx, phoneNumber, update)
	if err != nil {
		return "", nil, fmt.Errorf("failed to persist turn: %w", err)
	}

	if _, err := s.store.AppendMessage(ctx, conv.ID, model.RoleAssistant, result.Reply); err != nil {
		return "", nil, fmt.Errorf("failed to append assistant message: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant)).Inc()

	metrics.RecordTurn(string(result.Step), s.now().Sub(start).Seconds())

	if result.Step.Terminal() {
		metrics.ConversationsFinished.WithLabelValues(string(updated.Status)).Inc()
		eventType := events.TypeLeadQualified
		if updated.Status == model.StatusRejected {
			eventType = events.TypeLeadRejected
		}
		s.publish(ctx, eventType, updated)
		log.Info("conversation finished", zap.String("status", string(updated.Status)))
	}

	snapshot := updated.Snapshot()
	return result.Reply, &snapshot, nil
}

// GetStatus returns the public snapshot for a phone number, observing expiry
// on load like any other access.
func (s *ConversationService) GetStatus(ctx context.Context, phoneNumber string) (*model.Snapshot, error) {
	conv, err := s.store.Find(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}

	conv, err = s.expireIfLapsed(ctx, conv)
	if err != nil {
		return nil, err
	}

	snapshot := conv.Snapshot()
	return &snapshot, nil
}

// ListConversations returns conversations for the operator API.
func (s *ConversationService) ListConversations(ctx context.Context, limit, offset int) (*model.ListConversationsResponse, error) {
	conversations, total, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	return &model.ListConversationsResponse{
		Conversations: conversations,
		Total:         total,
		HasMore:       offset+len(conversations) < total,
	}, nil
}

// GetTranscript returns a conversation with its full transcript for the
// operator API.
func (s *ConversationService) GetTranscript(ctx context.Context, phoneNumber string) (*model.TranscriptResponse, error) {
	conv, err := s.store.Find(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	return &model.TranscriptResponse{
		Conversation: *conv,
		Messages:     messages,
	}, nil
}

// expireIfLapsed flips an active conversation to expired when the inactivity
// timeout has passed. The transition happens on access, not via a sweep.
func (s *ConversationService) expireIfLapsed(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	if conv.Status != model.StatusActive {
		return conv, nil
	}
	if !s.sessions.IsExpired(conv.LastActivity, s.now()) {
		return conv, nil
	}

	if err := s.store.SetStatus(ctx, conv.PhoneNumber, model.StatusExpired); err != nil {
		return nil, fmt.Errorf("failed to expire conversation: %w", err)
	}
	conv.Status = model.StatusExpired

	s.publish(ctx, events.TypeLeadExpired, conv)
	s.logger.WithPhone(conv.PhoneNumber).Info("conversation expired")

	return conv, nil
}

// publish emits a lead event best-effort; broker failures are logged only.
func (s *ConversationService) publish(ctx context.Context, eventType events.Type, conv *model.Conversation) {
	err := s.publisher.Publish(ctx, &events.LeadEvent{
		Type:        eventType,
		PhoneNumber: conv.PhoneNumber,
		Status:      conv.Status,
		FunnelStep:  conv.FunnelStep,
		Name:        conv.Fields.Name,
		BirthDate:   conv.Fields.BirthDate,
		OccurredAt:  s.now(),
	})
	if err != nil {
		s.logger.Warn("failed to publish lead event",
			zap.String("type", string(eventType)), zap.Error(err))
	}
}

// checkLiveness rejects turns on conversations that accept no further input.
func checkLiveness(conv *model.Conversation) error {
	switch conv.Status {
	case model.StatusExpired:
		return ErrConversationExpired
	case model.StatusQualified, model.StatusRejected:
		return ErrConversationFinished
	}
	return nil
}

// lock acquires the per-phone turn lock and returns its release func.
func (s *ConversationService) lock(phoneNumber string) func() {
	v, _ := s.locks.LoadOrStore(phoneNumber, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
