package agent

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/capitalize-ai/support-router/internal/model"
	"github.com/capitalize-ai/support-router/pkg/logger"
)

const (
	actionMaxTokens = 800

	clarifyText       = "I'd be happy to help! Could you provide more details about what you'd like me to do?"
	clarifyConf       = 0.4
	needMoreInfoText  = "\n\nTo help you with this, I'll need some additional information. Could you please provide the necessary details?"
	needMoreInfoConf  = 0.6
	executedConf      = 0.85
	actionFailureText = "I apologize, but I'm having trouble processing that action right now. Please try again or contact our support team."
	actionFailureConf = 0.3

	defaultSuccessText = "Action completed successfully."
	defaultFailureText = "Unable to complete the action. Please contact support."
)

const actionSystemPrompt = `You are an action-execution agent for customer support. Work out which action the user is asking for.

Available actions:
1. CHECK_ORDER_STATUS - check the status of an order (needs order ID or email)
2. UPDATE_ACCOUNT - update account information (email, address, phone)
3. CANCEL_ORDER - cancel an order (needs order ID)
4. REFUND_REQUEST - start a refund (needs order ID)
5. RESET_PASSWORD - send a password reset (needs email)
6. UPDATE_SHIPPING - change the shipping address (needs order ID)
7. TRACK_PACKAGE - track a package (needs tracking number)

Respond with:
ACTION: [action_name]
PARAMETERS: [parameters found in the message, or "NEED_MORE_INFO"]
EXPLANATION: [one sentence describing what you will do]

If the required parameters are missing, set PARAMETERS to "NEED_MORE_INFO".`

// ActionAgent selects an action with the model and runs it through an
// ActionExecutor.
type ActionAgent struct {
	gen  Generator
	exec *ActionExecutor
	log  *logger.Logger
}

// NewActionAgent creates an action agent.
func NewActionAgent(gen Generator, exec *ActionExecutor, log *logger.Logger) *ActionAgent {
	if log == nil {
		log = logger.NewNop()
	}
	return &ActionAgent{gen: gen, exec: exec, log: log.Named("action")}
}

// Respond plans and executes the action requested in message.
func (a *ActionAgent) Respond(ctx context.Context, message string, history model.History) (*model.AgentResponse, error) {
	ctx, span := tracer.Start(ctx, "action.respond")
	defer span.End()

	prompt := fmt.Sprintf(`Conversation history:
%s

User request: %s

What action should be taken? Respond in the exact format specified.`, formatHistory(history), message)

	reply, err := a.gen.Generate(ctx, prompt, actionSystemPrompt, actionMaxTokens)
	if err != nil {
		a.log.Warn("Action planning failed", zap.Error(err))
		return a.respond(actionFailureText, actionFailureConf, nil), nil
	}

	plan, ok := ParseActionPlan(reply)
	if !ok {
		return a.respond(clarifyText, clarifyConf, nil), nil
	}
	if plan.NeedsMoreInfo() {
		return a.respond(plan.Explanation+needMoreInfoText, needMoreInfoConf, nil), nil
	}

	span.SetAttributes(attribute.String("action.type", NormalizeAction(plan.Action)))
	result, err := a.exec.Execute(ctx, plan.Action, message)
	if err != nil {
		a.log.Error("Action execution failed",
			zap.String("action", plan.Action),
			zap.Error(err),
		)
		return a.respond(actionFailureText, actionFailureConf, nil), nil
	}

	text := plan.Explanation
	if result.Success {
		data := fmt.Sprint(result.Data)
		if result.Data == nil || data == "" {
			data = defaultSuccessText
		}
		text += "\n\n✓ " + data
	} else {
		msg := result.Error
		if msg == "" {
			msg = defaultFailureText
		}
		text += "\n\n✗ " + msg
	}

	a.log.Info("Action executed",
		zap.String("action", result.Type),
		zap.Bool("success", result.Success),
	)
	return a.respond(text, executedConf, &result), nil
}

func (a *ActionAgent) respond(text string, confidence float64, action *model.ActionResult) *model.AgentResponse {
	return &model.AgentResponse{
		Response:   text,
		Agent:      string(model.IntentAction),
		Confidence: confidence,
		Action:     action,
	}
}
