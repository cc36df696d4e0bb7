package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/support-router/internal/agent"
	"github.com/capitalize-ai/support-router/internal/model"
	natsclient "github.com/capitalize-ai/support-router/internal/nats"
	"github.com/capitalize-ai/support-router/pkg/logger"
	"github.com/capitalize-ai/support-router/pkg/metrics"
)

// HistoryWindow is the number of prior messages handed to the orchestrator.
const HistoryWindow = 5

// Responder answers one message given its history.
type Responder interface {
	ProcessMessageWithStages(ctx context.Context, text string, history model.History, observe agent.StageFunc) *model.AgentResponse
}

// EventPublisher publishes answered-message events.
type EventPublisher interface {
	PublishResponse(ctx context.Context, event *model.ResponseEvent) (uint64, error)
}

// ErrEmptyMessage is returned when a message has no content.
var ErrEmptyMessage = errors.New("message cannot be empty")

// MessageService runs user messages through the orchestrator and records
// the exchange.
type MessageService struct {
	conversations *ConversationService
	store         ConversationStore
	responder     Responder
	publisher     EventPublisher
	logger        *logger.Logger
	now           func() time.Time
}

// NewMessageService creates a new message service. publisher may be nil.
func NewMessageService(
	conversations *ConversationService,
	st ConversationStore,
	responder Responder,
	publisher EventPublisher,
	log *logger.Logger,
) *MessageService {
	if log == nil {
		log = logger.NewNop()
	}
	return &MessageService{
		conversations: conversations,
		store:         st,
		responder:     responder,
		publisher:     publisher,
		logger:        log.Named("messages"),
		now:           time.Now,
	}
}

// Send answers a message and returns the reply.
func (s *MessageService) Send(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	return s.SendWithStages(ctx, req, nil)
}

// SendWithStages is Send with an observer for orchestrator stages.
func (s *MessageService) SendWithStages(ctx context.Context, req *model.ChatRequest, observe agent.StageFunc) (*model.ChatResponse, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	start := s.now()

	conv, err := s.conversations.Resolve(ctx, req.ConversationID, req.UserID)
	if err != nil {
		return nil, err
	}

	history, err := s.conversations.History(ctx, conv.ID, HistoryWindow)
	if err != nil {
		return nil, err
	}

	userMsg := &model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        text,
		CreatedAt:      start.UTC(),
	}
	if err := s.store.AddMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser), "").Inc()

	resp := s.responder.ProcessMessageWithStages(ctx, text, history, observe)
	elapsed := s.now().Sub(start).Milliseconds()

	assistantMsg := &model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleAssistant,
		Content:        resp.Response,
		AgentType:      resp.Agent,
		Metadata:       responseMetadata(resp),
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.AddMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant), resp.Agent).Inc()

	success := resp.Agent != model.AgentError
	if err := s.store.RecordAnalytics(ctx, model.AnalyticsRecord{
		ConversationID: conv.ID,
		MessageID:      assistantMsg.ID,
		AgentUsed:      resp.Agent,
		ResponseTimeMs: elapsed,
		Success:        success,
	}); err != nil {
		s.logger.Warn("failed to record analytics", zap.String("conversation_id", conv.ID), zap.Error(err))
	}

	if resp.Agent == string(model.IntentEscalation) {
		if err := s.conversations.MarkEscalated(ctx, conv.ID); err != nil {
			s.logger.Warn("failed to mark conversation escalated", zap.String("conversation_id", conv.ID), zap.Error(err))
		}
	}

	s.publish(ctx, conv.ID, assistantMsg.ID, resp, elapsed)

	s.logger.Info("message answered",
		zap.String("conversation_id", conv.ID),
		zap.String("agent", resp.Agent),
		zap.Float64("confidence", resp.Confidence),
		zap.Int64("response_time_ms", elapsed),
	)

	return &model.ChatResponse{
		Message:        resp.Response,
		ConversationID: conv.ID,
		MessageID:      assistantMsg.ID,
		AgentUsed:      resp.Agent,
		Confidence:     resp.Confidence,
		ResponseTimeMs: elapsed,
		Sources:        resp.Sources,
		Action:         resp.Action,
	}, nil
}

func (s *MessageService) publish(ctx context.Context, conversationID, messageID string, resp *model.AgentResponse, elapsed int64) {
	if s.publisher == nil {
		return
	}
	event := &model.ResponseEvent{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		MessageID:      messageID,
		Type:           natsclient.EventType(resp.Agent),
		AgentUsed:      resp.Agent,
		Confidence:     resp.Confidence,
		ResponseTimeMs: elapsed,
		Action:         resp.Action,
		CreatedAt:      s.now().UTC(),
	}
	if _, err := s.publisher.PublishResponse(ctx, event); err != nil {
		s.logger.Warn("failed to publish response event",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
	}
}

func responseMetadata(resp *model.AgentResponse) map[string]any {
	meta := map[string]any{"confidence": resp.Confidence}
	if len(resp.Sources) > 0 {
		meta["sources"] = resp.Sources
	}
	if resp.Action != nil {
		meta["action"] = resp.Action
	}
	return meta
}
