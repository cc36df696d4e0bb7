package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/support-router/internal/model"
	"github.com/capitalize-ai/support-router/pkg/logger"
)

const (
	escalationMaxTokens = 1000
	escalationConf      = 0.95
	escalationPriority  = "high"

	// ActionEscalate is the action type attached to escalated responses.
	ActionEscalate = "ESCALATE"

	degradedAcknowledgement = "I'm really sorry for the trouble you've had. I've passed your case to our support team so a specialist can look into it personally."
)

const escalationSystemPrompt = `You are an escalation agent for customer support. You handle complaints, complex issues and requests for a human with empathy and professionalism.

Your responsibilities:
1. Acknowledge the customer's concern with empathy
2. Apologize where appropriate
3. Explain that a ticket is being created for human review
4. Offer any immediate help you can

Be warm, understanding and professional. Do not invent ticket numbers; they are added automatically.`

const escalationDetails = `%s

📋 Escalation Details:
• Ticket ID: %s
• Priority: High
• Expected Response: Within 2-4 hours
• Status: Assigned to support team

A senior support specialist will review your case and contact you shortly.`

// EscalationAgent acknowledges the customer and opens a ticket for human
// follow-up.
type EscalationAgent struct {
	gen Generator
	log *logger.Logger
	now func() time.Time
}

// NewEscalationAgent creates an escalation agent.
func NewEscalationAgent(gen Generator, log *logger.Logger) *EscalationAgent {
	if log == nil {
		log = logger.NewNop()
	}
	return &EscalationAgent{gen: gen, log: log.Named("escalation"), now: time.Now}
}

// Respond always returns a ticketed acknowledgement. When the model cannot
// be reached a fixed acknowledgement is used instead.
func (a *EscalationAgent) Respond(ctx context.Context, message string, history model.History) (*model.AgentResponse, error) {
	ctx, span := tracer.Start(ctx, "escalation.respond")
	defer span.End()

	prompt := fmt.Sprintf(`Conversation history:
%s

User message: %s

Provide an empathetic response to this escalation:`, formatHistory(history), message)

	ack, err := a.gen.Generate(ctx, prompt, escalationSystemPrompt, escalationMaxTokens)
	if err != nil || ack == "" {
		if err != nil {
			a.log.Warn("Escalation acknowledgement failed, using fallback", zap.Error(err))
			span.RecordError(err)
		}
		ack = degradedAcknowledgement
	}

	ticketID := TicketID(a.now())
	a.log.Info("Conversation escalated", zap.String("ticket_id", ticketID))

	return &model.AgentResponse{
		Response:   fmt.Sprintf(escalationDetails, ack, ticketID),
		Agent:      string(model.IntentEscalation),
		Confidence: escalationConf,
		Action: &model.ActionResult{
			Type:    ActionEscalate,
			Success: true,
			Data: map[string]string{
				"ticketId": ticketID,
				"priority": escalationPriority,
			},
		},
	}, nil
}

// TicketID derives a ticket id from the last six digits of t in unix
// milliseconds.
func TicketID(t time.Time) string {
	return fmt.Sprintf("ESC-%06d", t.UnixMilli()%1_000_000)
}
