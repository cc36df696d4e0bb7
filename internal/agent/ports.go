// Package agent routes support messages to a response strategy and
// produces the reply.
package agent

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/capitalize-ai/support-router/internal/model"
)

var tracer = otel.Tracer("support-router/agent")

// Generator produces text from a prompt and an optional system instruction.
type Generator interface {
	Generate(ctx context.Context, prompt, system string, maxTokens int) (string, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher returns stored chunks nearest to a vector, ordered by
// descending score. It may return fewer than topK matches.
type VectorSearcher interface {
	Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]model.Match, error)
}

// Strategy answers a message that has been routed to it. Strategies contain
// their own collaborator failures; a returned error is treated by the
// orchestrator as unexpected.
type Strategy interface {
	Respond(ctx context.Context, message string, history model.History) (*model.AgentResponse, error)
}

// Classifier picks the intent for a message.
type Classifier interface {
	Classify(ctx context.Context, message string, history model.History) Routing
}
