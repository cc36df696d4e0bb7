package agent

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/capitalize-ai/support-router/internal/model"
	"github.com/capitalize-ai/support-router/pkg/logger"
)

const (
	knowledgeMaxTokens   = 1500
	defaultTopK          = 5
	knowledgeFailureText = "I apologize, but I'm having trouble accessing our knowledge base right now. Could you please try again in a moment, or contact our support team directly?"
	knowledgeFailureConf = 0.3
	contextDivider       = "\n\n---\n\n"
	unknownTitle         = "Unknown"
	unknownSource        = "Unknown source"
)

const knowledgeSystemPrompt = `You are a knowledgeable customer support agent. Answer the user's question using only the context retrieved from the knowledge base.

Guidelines:
- Base the answer on the provided context
- If the context does not contain the information, say so plainly
- Be concise but complete
- Use bullet points for lists
- Be friendly and professional
- If sources disagree, mention both

If you cannot answer from the context, suggest a next step such as contacting support or checking their account.`

// KnowledgeAgent answers questions from retrieved knowledge-base chunks.
type KnowledgeAgent struct {
	gen    Generator
	embed  Embedder
	search VectorSearcher
	topK   int
	log    *logger.Logger
}

// NewKnowledgeAgent creates a knowledge agent. A non-positive topK uses 5.
func NewKnowledgeAgent(gen Generator, embed Embedder, search VectorSearcher, topK int, log *logger.Logger) *KnowledgeAgent {
	if topK <= 0 {
		topK = defaultTopK
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &KnowledgeAgent{
		gen:    gen,
		embed:  embed,
		search: search,
		topK:   topK,
		log:    log.Named("knowledge"),
	}
}

// Respond retrieves context for message and generates an answer from it.
func (a *KnowledgeAgent) Respond(ctx context.Context, message string, history model.History) (*model.AgentResponse, error) {
	ctx, span := tracer.Start(ctx, "knowledge.respond")
	defer span.End()

	vector, err := a.embed.Embed(ctx, message)
	if err != nil {
		return a.failure("embedding", err), nil
	}

	matches, err := a.search.Query(ctx, vector, a.topK, nil)
	if err != nil {
		return a.failure("search", err), nil
	}
	span.SetAttributes(attribute.Int("knowledge.matches", len(matches)))

	prompt := fmt.Sprintf(`Context from knowledge base:
%s

Conversation history:
%s

User question: %s

Provide a helpful answer based on the context above:`, BuildContext(matches), formatHistory(history), message)

	answer, err := a.gen.Generate(ctx, prompt, knowledgeSystemPrompt, knowledgeMaxTokens)
	if err != nil {
		return a.failure("generation", err), nil
	}

	confidence := AnswerConfidence(answer)
	a.log.Debug("Knowledge answer generated",
		zap.Int("matches", len(matches)),
		zap.Float64("confidence", confidence),
	)

	return &model.AgentResponse{
		Response:   answer,
		Agent:      string(model.IntentKnowledge),
		Confidence: confidence,
		Sources:    SourceTitles(matches),
	}, nil
}

func (a *KnowledgeAgent) failure(step string, err error) *model.AgentResponse {
	a.log.Warn("Knowledge lookup failed", zap.String("step", step), zap.Error(err))
	return &model.AgentResponse{
		Response:   knowledgeFailureText,
		Agent:      string(model.IntentKnowledge),
		Confidence: knowledgeFailureConf,
	}
}

// BuildContext renders matches as numbered source blocks separated by a
// divider.
func BuildContext(matches []model.Match) string {
	blocks := make([]string, len(matches))
	for i, m := range matches {
		title := m.Title()
		if title == "" {
			title = unknownTitle
		}
		blocks[i] = fmt.Sprintf("[Source %d: %s (Relevance: %.1f%%)]\n%s", i+1, title, m.Score*100, m.Text())
	}
	return strings.Join(blocks, contextDivider)
}

// SourceTitles returns the distinct match titles in first-seen order, or nil
// when there are no matches.
func SourceTitles(matches []model.Match) []string {
	var sources []string
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		title := m.Title()
		if title == "" {
			title = unknownSource
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		sources = append(sources, title)
	}
	return sources
}

// AnswerConfidence scores a generated answer. It starts at 0.5 and adds 0.2
// for answers longer than 50 characters, 0.15 for answers with line breaks
// or bullets, and 0.15 when the answer does not hedge.
func AnswerConfidence(answer string) float64 {
	confidence := 0.5
	if utf8.RuneCountInString(answer) > 50 {
		confidence += 0.2
	}
	if strings.Contains(answer, "\n") || strings.Contains(answer, "•") {
		confidence += 0.15
	}
	lower := strings.ToLower(answer)
	if !strings.Contains(lower, "i'm not sure") && !strings.Contains(lower, "i don't know") {
		confidence += 0.15
	}
	return model.ClampConfidence(confidence)
}
