package model

import (
	"time"
)

// EventType represents the type of a published response event.
type EventType string

const (
	EventTypeResponse   EventType = "response"
	EventTypeEscalation EventType = "escalation"
	EventTypeError      EventType = "error"
)

// ResponseEvent is published once per answered message.
type ResponseEvent struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	MessageID      string        `json:"message_id"`
	Type           EventType     `json:"type"`
	AgentUsed      string        `json:"agent_used"`
	Confidence     float64       `json:"confidence"`
	ResponseTimeMs int64         `json:"response_time_ms"`
	Action         *ActionResult `json:"action,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	Sequence       uint64        `json:"sequence,omitempty"`
}

// StageEvent reports an orchestrator stage transition to streaming clients.
type StageEvent struct {
	Stage  string `json:"stage"`
	Intent string `json:"intent,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ErrorEvent represents an error event.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
