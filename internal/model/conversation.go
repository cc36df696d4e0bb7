// Package model defines data structures for the support router.
package model

import (
	"time"
)

// ConversationStatus is the lifecycle state of a conversation.
type ConversationStatus string

const (
	ConversationActive    ConversationStatus = "active"
	ConversationResolved  ConversationStatus = "resolved"
	ConversationEscalated ConversationStatus = "escalated"
)

// Conversation represents a support conversation thread.
type Conversation struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id,omitempty"`
	Status    ConversationStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Metadata  map[string]string  `json:"metadata,omitempty"`
}

// ConversationDetail is a conversation together with its messages.
type ConversationDetail struct {
	Conversation Conversation `json:"conversation"`
	Messages     []Message    `json:"messages"`
}

// AnalyticsSummary aggregates outcomes for one agent over a time window.
type AnalyticsSummary struct {
	AgentUsed     string  `json:"agent_used"`
	Total         int     `json:"total"`
	AvgResponseMs float64 `json:"avg_response_time_ms"`
	Successful    int     `json:"successful"`
	Failed        int     `json:"failed"`
}

// AnalyticsRecord is one row of response analytics.
type AnalyticsRecord struct {
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id"`
	AgentUsed      string    `json:"agent_used"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	Success        bool      `json:"success"`
	CreatedAt      time.Time `json:"created_at"`
}
