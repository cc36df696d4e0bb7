package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/support-router/internal/agent"
	"github.com/capitalize-ai/support-router/internal/middleware"
	"github.com/capitalize-ai/support-router/internal/model"
	"github.com/capitalize-ai/support-router/internal/service"
	"github.com/capitalize-ai/support-router/pkg/logger"
	"github.com/capitalize-ai/support-router/pkg/metrics"
)

// StreamHandler handles SSE streaming endpoints.
type StreamHandler struct {
	messageService *service.MessageService
	logger         *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(msgSvc *service.MessageService, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		messageService: msgSvc,
		logger:         log,
	}
}

// StreamWithMessage handles POST /api/v1/chat/stream
// It emits one "stage" event per orchestrator stage, then either a
// "response" event with the reply or an "error" event, then "done".
func (h *StreamHandler) StreamWithMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := readChatRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	resp, err := h.messageService.SendWithStages(ctx, req, func(stage agent.Stage, routing agent.Routing) {
		if ctx.Err() != nil {
			return
		}
		sendSSEEvent(w, flusher, "stage", &model.StageEvent{
			Stage:  string(stage),
			Intent: string(routing.Intent),
			Reason: routing.Rationale,
		})
	})
	if err != nil {
		status, msg := sendErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("failed to stream message",
				zap.String("correlation_id", middleware.GetCorrelationID(ctx)),
				zap.Error(err),
			)
		}
		sendSSEEvent(w, flusher, "error", &model.ErrorEvent{
			Code:    http.StatusText(status),
			Message: msg,
		})
		return
	}

	sendSSEEvent(w, flusher, "response", resp)
	sendSSEEvent(w, flusher, "done", map[string]bool{"success": true})
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
