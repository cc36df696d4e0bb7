package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/support-router/internal/middleware"
	"github.com/capitalize-ai/support-router/internal/model"
	"github.com/capitalize-ai/support-router/internal/service"
	"github.com/capitalize-ai/support-router/pkg/logger"
)

// MessageHandler handles chat message endpoints.
type MessageHandler struct {
	messageService *service.MessageService
	logger         *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(msgSvc *service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: msgSvc,
		logger:         log,
	}
}

// Send handles POST /api/v1/chat/message
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	req, ok := readChatRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.messageService.Send(r.Context(), req)
	if err != nil {
		status, msg := sendErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("failed to process message",
				zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
				zap.Error(err),
			)
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// readChatRequest decodes and validates a chat request. The authenticated
// user, when present, overrides any user_id in the body.
func readChatRequest(w http.ResponseWriter, r *http.Request) (*model.ChatRequest, bool) {
	var req model.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if req.ConversationID != "" {
		if err := middleware.ValidateConversationID(req.ConversationID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
	}
	if userID := middleware.GetUserID(r.Context()); userID != "" {
		req.UserID = userID
	}
	return &req, true
}

func sendErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrConversationNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, "failed to process message"
	}
}
