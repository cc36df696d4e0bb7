package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents a conversation message.
type Message struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Role           Role           `json:"role"`
	Content        string         `json:"content"`
	AgentType      string         `json:"agent_type,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// History is an insertion-ordered list of prior messages, oldest first.
type History []Message

// Recent returns the last n messages of the history.
func (h History) Recent(n int) History {
	if n <= 0 {
		return nil
	}
	if len(h) <= n {
		return h
	}
	return h[len(h)-n:]
}

// ChatRequest is the request to send a support message.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// ChatResponse is the reply to a support message.
type ChatResponse struct {
	Message        string        `json:"message"`
	ConversationID string        `json:"conversation_id"`
	MessageID      string        `json:"message_id"`
	AgentUsed      string        `json:"agent_used"`
	Confidence     float64       `json:"confidence"`
	ResponseTimeMs int64         `json:"response_time_ms"`
	Sources        []string      `json:"sources,omitempty"`
	Action         *ActionResult `json:"action,omitempty"`
}
