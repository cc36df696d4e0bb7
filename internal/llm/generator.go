package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/support-router/pkg/logger"
	"github.com/capitalize-ai/support-router/pkg/metrics"
)

// TextGenerator adapts a Client to single-prompt text generation.
type TextGenerator struct {
	client      Client
	model       string
	temperature float64
	log         *logger.Logger
}

// NewTextGenerator creates a generator bound to one provider and model.
// An empty model uses the provider default.
func NewTextGenerator(client Client, model string, log *logger.Logger) *TextGenerator {
	if log == nil {
		log = logger.NewNop()
	}
	return &TextGenerator{
		client:      client,
		model:       model,
		temperature: 0.3,
		log:         log.Named("llm"),
	}
}

// Generate sends one user prompt with an optional system instruction and
// returns the reply text.
func (g *TextGenerator) Generate(ctx context.Context, prompt, system string, maxTokens int) (string, error) {
	start := time.Now()

	resp, err := g.client.Complete(ctx, &CompletionRequest{
		Model:       g.model,
		System:      system,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		metrics.RecordLLM(g.client.Name(), g.model, "error", time.Since(start).Seconds(), 0, 0)
		g.log.Warn("Completion failed",
			zap.String("provider", g.client.Name()),
			zap.Error(err),
		)
		return "", err
	}

	metrics.RecordLLM(g.client.Name(), resp.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	g.log.Debug("Completion finished",
		zap.String("provider", g.client.Name()),
		zap.String("model", resp.Model),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Int64("latency_ms", resp.LatencyMs),
	)
	return resp.Content, nil
}

// DisabledGenerator fails every call with Reason. It stands in for a
// provider that could not be configured so callers fall back to their
// degraded answers.
type DisabledGenerator struct {
	Reason error
}

// Generate returns the configured reason as an error.
func (g DisabledGenerator) Generate(context.Context, string, string, int) (string, error) {
	return "", fmt.Errorf("LLM disabled: %w", g.Reason)
}
