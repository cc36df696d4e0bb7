// Package app wires configuration into the storage, knowledge-base, agent
// and service components shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/support-router/internal/agent"
	"github.com/capitalize-ai/support-router/internal/config"
	"github.com/capitalize-ai/support-router/internal/handler"
	"github.com/capitalize-ai/support-router/internal/ingest"
	"github.com/capitalize-ai/support-router/internal/llm"
	"github.com/capitalize-ai/support-router/internal/model"
	natsclient "github.com/capitalize-ai/support-router/internal/nats"
	"github.com/capitalize-ai/support-router/internal/service"
	"github.com/capitalize-ai/support-router/internal/store"
	"github.com/capitalize-ai/support-router/internal/vectorstore"
	"github.com/capitalize-ai/support-router/pkg/logger"
)

// App holds the wired components.
type App struct {
	Config        *config.Config
	Logger        *logger.Logger
	Store         *store.SQLiteStore
	Vectors       *vectorstore.SQLiteIndex
	Processor     *ingest.Processor
	Orchestrator  *agent.Orchestrator
	Conversations *service.ConversationService
	Messages      *service.MessageService

	// Set only when NATS is enabled.
	NATS    *natsclient.Client
	Streams *natsclient.StreamManager
}

// Option overrides a component built by New.
type Option func(*options)

type options struct {
	generator agent.Generator
	embedder  agent.Embedder
}

// WithGenerator replaces the configured LLM generator.
func WithGenerator(g agent.Generator) Option {
	return func(o *options) { o.generator = g }
}

// WithEmbedder replaces the configured embedder.
func WithEmbedder(e agent.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// New builds the application from cfg.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a := &App{Config: cfg, Logger: log, Store: st}

	a.Vectors, err = vectorstore.NewSQLiteIndex(st.DB())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open vector index: %w", err)
	}

	embedder := o.embedder
	if embedder == nil {
		if embedder, err = newEmbedder(cfg); err != nil {
			a.Close()
			return nil, err
		}
	}

	generator := o.generator
	if generator == nil {
		generator = newGenerator(cfg, log)
	}

	a.Processor = ingest.NewProcessor(
		ingest.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder, a.Vectors, st, log,
	)

	a.Orchestrator = agent.NewOrchestrator(
		agent.NewRouter(generator, log),
		map[model.Intent]agent.Strategy{
			model.IntentKnowledge:  agent.NewKnowledgeAgent(generator, embedder, a.Vectors, cfg.RetrievalTopK, log),
			model.IntentAction:     agent.NewActionAgent(generator, agent.NewActionExecutor(cfg.ActionDemoMode), log),
			model.IntentEscalation: agent.NewEscalationAgent(generator, log),
		},
		log,
	)

	var publisher service.EventPublisher
	if cfg.NATSEnabled {
		if err := a.connectNATS(ctx); err != nil {
			a.Close()
			return nil, err
		}
		publisher = a.Streams
	}

	a.Conversations = service.NewConversationService(st, log)
	a.Messages = service.NewMessageService(a.Conversations, st, a.Orchestrator, publisher, log)

	return a, nil
}

func (a *App) connectNATS(ctx context.Context) error {
	cfg := a.Config
	client, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	a.NATS = client

	a.Streams = natsclient.NewStreamManager(client)
	if err := a.Streams.EnsureStream(ctx); err != nil {
		return fmt.Errorf("failed to ensure stream: %w", err)
	}
	return nil
}

// Router returns the HTTP API for the application.
func (a *App) Router() http.Handler {
	log := a.Logger

	var (
		nats   handler.ConnectionChecker
		events handler.EventReader
	)
	if a.NATS != nil {
		nats = a.NATS
		events = a.Streams
	}

	return handler.NewRouter(handler.RouterConfig{
		Health:         handler.NewHealthHandler(a.Store, nats),
		Messages:       handler.NewMessageHandler(a.Messages, log),
		Stream:         handler.NewStreamHandler(a.Messages, log),
		Conversations:  handler.NewConversationHandler(a.Conversations, events, log),
		Documents:      handler.NewDocumentHandler(a.Processor, log),
		Logger:         log,
		AllowedOrigins: a.Config.CORSAllowedOrigins,
		AuthEnabled:    a.Config.AuthEnabled,
		JWTSecret:      a.Config.JWTSecret,
		RateLimit:      a.Config.RateLimitRequests,
		RateWindow:     a.Config.RateLimitWindow,
	})
}

// Close releases the NATS connection and the database.
func (a *App) Close() {
	if a.NATS != nil {
		a.NATS.Close()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn("failed to close store", zap.Error(err))
		}
	}
}

func newEmbedder(cfg *config.Config) (agent.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		e, err := llm.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		return e, nil
	default:
		return llm.NewHashEmbedder(cfg.EmbeddingDimensions), nil
	}
}

func newGenerator(cfg *config.Config, log *logger.Logger) agent.Generator {
	apiKey := cfg.AnthropicAPIKey
	if llm.Provider(cfg.LLMProvider) == llm.ProviderOpenAI {
		apiKey = cfg.OpenAIAPIKey
	}

	client, err := llm.NewClient(llm.Provider(cfg.LLMProvider), apiKey)
	if err != nil {
		log.Warn("LLM client unavailable, answers will use fallbacks",
			zap.String("provider", cfg.LLMProvider),
			zap.Error(err),
		)
		return llm.DisabledGenerator{Reason: err}
	}
	return llm.NewTextGenerator(client, cfg.LLMModel, log)
}
