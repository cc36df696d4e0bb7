package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/capitalize-ai/support-router/internal/model"
)

var errUnavailable = errors.New("service unavailable")

type generateCall struct {
	prompt    string
	system    string
	maxTokens int
}

// scriptedGenerator replies with a fixed text per system prompt.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	calls   []generateCall
}

func newScriptedGenerator() *scriptedGenerator {
	return &scriptedGenerator{
		replies: make(map[string]string),
		errs:    make(map[string]error),
	}
}

func (g *scriptedGenerator) on(system, reply string) *scriptedGenerator {
	g.replies[system] = reply
	return g
}

func (g *scriptedGenerator) fail(system string, err error) *scriptedGenerator {
	g.errs[system] = err
	return g
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt, system string, maxTokens int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, generateCall{prompt: prompt, system: system, maxTokens: maxTokens})
	if err := g.errs[system]; err != nil {
		return "", err
	}
	return g.replies[system], nil
}

func (g *scriptedGenerator) lastCall() generateCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		return generateCall{}
	}
	return g.calls[len(g.calls)-1]
}

type stubEmbedder struct {
	err error
}

func (e *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{1, 0, 0}, nil
}

type stubSearcher struct {
	matches []model.Match
	err     error
	topK    int
}

func (s *stubSearcher) Query(_ context.Context, _ []float32, topK int, _ map[string]string) ([]model.Match, error) {
	s.topK = topK
	if s.err != nil {
		return nil, s.err
	}
	return s.matches, nil
}

type strategyFunc func(ctx context.Context, message string, history model.History) (*model.AgentResponse, error)

func (f strategyFunc) Respond(ctx context.Context, message string, history model.History) (*model.AgentResponse, error) {
	return f(ctx, message, history)
}

func match(title, text string, score float64) model.Match {
	meta := map[string]string{model.MetaText: text}
	if title != "" {
		meta[model.MetaTitle] = title
	}
	return model.Match{ID: title + text, Score: score, Metadata: meta}
}
