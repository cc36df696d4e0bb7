package agent

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/capitalize-ai/support-router/internal/model"
	"github.com/capitalize-ai/support-router/pkg/logger"
	"github.com/capitalize-ai/support-router/pkg/metrics"
)

const (
	routerMaxTokens      = 500
	routerFallbackReason = "Error in routing, defaulting to knowledge agent"
)

const routerSystemPrompt = `You are a routing agent for a customer support system. Decide which specialized agent should handle the user's message.

Available agents:
1. KNOWLEDGE - questions about products, services, policies, documentation, FAQs and how-to questions
2. ACTION - requests to do something: check order status, update an account, cancel an order, make changes
3. ESCALATION - complaints, upset customers, complex issues, requests to talk to a human

Reply with the agent name (KNOWLEDGE, ACTION or ESCALATION) and a short reason, exactly in this format:
AGENT: [agent_name]
REASON: [brief reason]`

// Router classifies messages with one generation call.
type Router struct {
	gen Generator
	log *logger.Logger
}

// NewRouter creates a router.
func NewRouter(gen Generator, log *logger.Logger) *Router {
	if log == nil {
		log = logger.NewNop()
	}
	return &Router{gen: gen, log: log.Named("router")}
}

// Classify returns the intent for message. It never fails: when the model
// cannot be reached the knowledge intent is returned with Fallback set.
func (r *Router) Classify(ctx context.Context, message string, history model.History) Routing {
	ctx, span := tracer.Start(ctx, "router.classify")
	defer span.End()

	prompt := fmt.Sprintf(`Conversation history:
%s

Current user message: %s

Which agent should handle this? Respond in the exact format specified.`, formatHistory(history), message)

	reply, err := r.gen.Generate(ctx, prompt, routerSystemPrompt, routerMaxTokens)
	if err != nil {
		r.log.Warn("Routing failed, defaulting to knowledge", zap.Error(err))
		span.RecordError(err)
		metrics.RecordRouting(string(model.IntentKnowledge), true)
		return Routing{
			Intent:    model.IntentKnowledge,
			Rationale: routerFallbackReason,
			Fallback:  true,
		}
	}

	routing := ParseRouting(reply)
	span.SetAttributes(attribute.String("routing.intent", string(routing.Intent)))
	metrics.RecordRouting(string(routing.Intent), false)
	r.log.Debug("Message routed",
		zap.String("intent", string(routing.Intent)),
		zap.String("label", routing.Label),
		zap.String("reason", routing.Rationale),
	)
	return routing
}
