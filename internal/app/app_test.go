package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/capitalize-ai/support-router/internal/config"
	"github.com/capitalize-ai/support-router/internal/ingest"
	"github.com/capitalize-ai/support-router/internal/model"
	"github.com/capitalize-ai/support-router/pkg/logger"
)

// routedGenerator answers the routing prompt with route and every other
// prompt with answer, recording the prompts it saw.
type routedGenerator struct {
	mu      sync.Mutex
	route   string
	answer  string
	prompts []string
}

func (g *routedGenerator) Generate(ctx context.Context, prompt, system string, maxTokens int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if strings.Contains(system, "routing agent") {
		return g.route, nil
	}
	return g.answer, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBPath:              filepath.Join(t.TempDir(), "support.db"),
		LLMProvider:         "anthropic",
		EmbeddingProvider:   "hash",
		EmbeddingDimensions: 256,
		ChunkSize:           1000,
		RetrievalTopK:       5,
		ActionDemoMode:      true,
		CORSAllowedOrigins:  []string{"*"},
	}
}

func newTestApp(t *testing.T, gen *routedGenerator) *App {
	t.Helper()
	var opts []Option
	if gen != nil {
		opts = append(opts, WithGenerator(gen))
	}
	a, err := New(context.Background(), testConfig(t), logger.NewNop(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func seed(t *testing.T, a *App) {
	t.Helper()
	docs, err := ingest.LoadSeedFile(filepath.Join("..", "..", "data", "sample-documents.yaml"))
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	res := a.Processor.IngestBatch(context.Background(), docs)
	if len(res.Failed) != 0 || len(res.Ingested) != len(docs) {
		t.Fatalf("seed result = %+v", res)
	}
}

func TestKnowledgeQuestionEndToEnd(t *testing.T) {
	gen := &routedGenerator{
		route:  "AGENT: KNOWLEDGE\nREASON: Return policy question",
		answer: "Items can be returned within 30 days of delivery.\n• Refunds take 5-7 business days.",
	}
	a := newTestApp(t, gen)
	seed(t, a)

	resp, err := a.Messages.Send(context.Background(), &model.ChatRequest{Message: "What is your return policy for returned items?"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.AgentUsed != "knowledge" {
		t.Fatalf("AgentUsed = %q", resp.AgentUsed)
	}
	found := false
	for _, s := range resp.Sources {
		if s == "Return Policy" {
			found = true
		}
	}
	if !found {
		t.Errorf("Sources = %v, want Return Policy among them", resp.Sources)
	}
	if resp.Confidence < 0.85 {
		t.Errorf("Confidence = %v", resp.Confidence)
	}
	if len(gen.prompts) != 2 || !strings.Contains(gen.prompts[1], "[Source 1:") {
		t.Errorf("knowledge prompt did not carry retrieved context: %v", gen.prompts)
	}
}

func TestEscalationEndToEnd(t *testing.T) {
	gen := &routedGenerator{
		route:  "AGENT: ESCALATION\nREASON: Customer asks for a manager",
		answer: "I'm sorry for the trouble. A specialist will reach out shortly.",
	}
	a := newTestApp(t, gen)

	resp, err := a.Messages.Send(context.Background(), &model.ChatRequest{Message: "I want to speak to a manager now"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.AgentUsed != "escalation" || resp.Action == nil || resp.Action.Type != "ESCALATE" {
		t.Fatalf("resp = %+v", resp)
	}
	conv, err := a.Store.GetConversation(context.Background(), resp.ConversationID)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if conv.Status != model.ConversationEscalated {
		t.Errorf("status = %q", conv.Status)
	}
}

func TestMissingAPIKeyFallsBack(t *testing.T) {
	a := newTestApp(t, nil)

	resp, err := a.Messages.Send(context.Background(), &model.ChatRequest{Message: "How long does shipping take?"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.AgentUsed != "knowledge" || resp.Message == "" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestRouterServesHealth(t *testing.T) {
	a := newTestApp(t, &routedGenerator{})
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/ready = %d", rec.Code)
	}
}
