package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/support-router/internal/middleware"
	"github.com/capitalize-ai/support-router/internal/model"
	"github.com/capitalize-ai/support-router/internal/service"
	"github.com/capitalize-ai/support-router/pkg/logger"
)

// EventReader replays published response events for a conversation.
type EventReader interface {
	GetEvents(ctx context.Context, conversationID string, afterSequence uint64, limit int) ([]model.ResponseEvent, uint64, bool, error)
}

// EventsResponse is the response of the conversation events endpoint.
type EventsResponse struct {
	Events       []model.ResponseEvent `json:"events"`
	LastSequence uint64                `json:"last_sequence"`
	HasMore      bool                  `json:"has_more"`
}

// ConversationHandler handles conversation and analytics endpoints.
type ConversationHandler struct {
	service *service.ConversationService
	events  EventReader
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler. events may be
// nil when event publishing is disabled.
func NewConversationHandler(svc *service.ConversationService, events EventReader, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		events:  events,
		logger:  log,
	}
}

// Get handles GET /api/v1/chat/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.service.Get(r.Context(), conversationID, requestUserID(r))
	if errors.Is(err, service.ErrConversationNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get conversation", zap.String("conversation_id", conversationID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get conversation")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// requestUserID returns the token subject, or the user_id query parameter
// when authentication is disabled.
func requestUserID(r *http.Request) string {
	if userID, ok := r.Context().Value(middleware.UserIDKey).(string); ok {
		return userID
	}
	return r.URL.Query().Get("user_id")
}

// Analytics handles GET /api/v1/chat/analytics?hours=N
func (h *ConversationHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > 24*365 {
			writeError(w, http.StatusBadRequest, "hours must be between 1 and 8760")
			return
		}
		hours = parsed
	}

	summary, err := h.service.Analytics(r.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		h.logger.Error("failed to get analytics", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get analytics")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"hours":   hours,
		"summary": summary,
	})
}

// Events handles GET /api/v1/chat/conversations/{id}/events
// Supports ?after_sequence=N and ?limit=N for paging.
func (h *ConversationHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeError(w, http.StatusNotImplemented, "event stream disabled")
		return
	}

	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.service.Lookup(r.Context(), conversationID, requestUserID(r)); err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("failed to get conversation", zap.String("conversation_id", conversationID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get conversation")
		return
	}

	var afterSequence uint64
	limit := 50
	if seq := r.URL.Query().Get("after_sequence"); seq != "" {
		if parsed, err := strconv.ParseUint(seq, 10, 64); err == nil {
			afterSequence = parsed
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	events, lastSeq, hasMore, err := h.events.GetEvents(r.Context(), conversationID, afterSequence, limit)
	if err != nil {
		h.logger.Error("failed to get events", zap.String("conversation_id", conversationID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get events")
		return
	}

	writeJSON(w, http.StatusOK, &EventsResponse{
		Events:       events,
		LastSequence: lastSeq,
		HasMore:      hasMore,
	})
}
