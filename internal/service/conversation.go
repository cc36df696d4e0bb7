// Package service provides the conversation workflow around the message
// orchestrator.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/support-router/internal/model"
	"github.com/capitalize-ai/support-router/internal/store"
	"github.com/capitalize-ai/support-router/pkg/logger"
	"github.com/capitalize-ai/support-router/pkg/metrics"
)

// ErrConversationNotFound is returned for unknown conversation IDs.
var ErrConversationNotFound = errors.New("conversation not found")

// DefaultAnalyticsWindow is the analytics window used when none is given.
const DefaultAnalyticsWindow = 24 * time.Hour

// ConversationStore persists conversations, messages and analytics.
type ConversationStore interface {
	CreateConversation(ctx context.Context, userID string) (*model.Conversation, error)
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	UpdateConversationStatus(ctx context.Context, id string, status model.ConversationStatus) error
	AddMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error)
	RecordAnalytics(ctx context.Context, rec model.AnalyticsRecord) error
	AnalyticsSummary(ctx context.Context, since time.Time) ([]model.AnalyticsSummary, error)
}

// ConversationService handles conversation lookups and lifecycle.
type ConversationService struct {
	store  ConversationStore
	logger *logger.Logger
	now    func() time.Time
}

// NewConversationService creates a new conversation service.
func NewConversationService(st ConversationStore, log *logger.Logger) *ConversationService {
	if log == nil {
		log = logger.NewNop()
	}
	return &ConversationService{
		store:  st,
		logger: log.Named("conversations"),
		now:    time.Now,
	}
}

// Resolve returns the conversation with the given ID, or creates a new one
// for userID when id is empty. A conversation owned by another user is
// reported as ErrConversationNotFound.
func (s *ConversationService) Resolve(ctx context.Context, id, userID string) (*model.Conversation, error) {
	if id != "" {
		return s.Lookup(ctx, id, userID)
	}

	conv, err := s.store.CreateConversation(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	metrics.ConversationsTotal.Inc()
	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("user_id", userID),
	)
	return conv, nil
}

// Get returns a conversation with all of its messages if userID may see it.
func (s *ConversationService) Get(ctx context.Context, id, userID string) (*model.ConversationDetail, error) {
	conv, err := s.Lookup(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	messages, err := s.store.ListMessages(ctx, id, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return &model.ConversationDetail{Conversation: *conv, Messages: messages}, nil
}

// History returns the most recent limit messages of a conversation.
func (s *ConversationService) History(ctx context.Context, id string, limit int) (model.History, error) {
	messages, err := s.store.ListMessages(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return model.History(messages), nil
}

// MarkEscalated moves a conversation to the escalated state.
func (s *ConversationService) MarkEscalated(ctx context.Context, id string) error {
	if err := s.store.UpdateConversationStatus(ctx, id, model.ConversationEscalated); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("failed to update conversation status: %w", err)
	}
	s.logger.Info("conversation escalated", zap.String("conversation_id", id))
	return nil
}

// Analytics summarizes response outcomes per agent over the given window.
// A non-positive window uses DefaultAnalyticsWindow.
func (s *ConversationService) Analytics(ctx context.Context, window time.Duration) ([]model.AnalyticsSummary, error) {
	if window <= 0 {
		window = DefaultAnalyticsWindow
	}
	summary, err := s.store.AnalyticsSummary(ctx, s.now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("failed to summarize analytics: %w", err)
	}
	return summary, nil
}

// Lookup returns the conversation with the given ID. Conversations created
// without a user are visible to everyone; owned ones only to their owner.
func (s *ConversationService) Lookup(ctx context.Context, id, userID string) (*model.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv.UserID != "" && conv.UserID != userID {
		s.logger.Warn("conversation owner mismatch",
			zap.String("conversation_id", id),
			zap.String("user_id", userID),
		)
		return nil, ErrConversationNotFound
	}
	return conv, nil
}
