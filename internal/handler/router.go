package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/support-router/internal/middleware"
	"github.com/capitalize-ai/support-router/pkg/logger"
)

// RouterConfig carries the handlers and HTTP policy for NewRouter.
type RouterConfig struct {
	Health        *HealthHandler
	Messages      *MessageHandler
	Stream        *StreamHandler
	Conversations *ConversationHandler
	Documents     *DocumentHandler

	Logger         *logger.Logger
	AllowedOrigins []string
	AuthEnabled    bool
	JWTSecret      string
	RateLimit      int
	RateWindow     time.Duration
}

// NewRouter builds the HTTP routes of the support API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", cfg.Health.Health)
	r.Get("/ready", cfg.Health.Ready)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.AuthEnabled {
			r.Use(middleware.Auth(cfg.JWTSecret))
		}
		if cfg.RateLimit > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateWindow))
		}

		r.Route("/chat", func(r chi.Router) {
			if cfg.AuthEnabled {
				r.Use(middleware.RequireScope(middleware.ScopeChat))
			}
			r.Post("/message", cfg.Messages.Send)
			r.Post("/stream", cfg.Stream.StreamWithMessage)
			r.Get("/conversations/{id}", cfg.Conversations.Get)
			r.Get("/conversations/{id}/events", cfg.Conversations.Events)
			r.Get("/analytics", cfg.Conversations.Analytics)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", cfg.Documents.List)
			r.Group(func(r chi.Router) {
				if cfg.AuthEnabled {
					r.Use(middleware.RequireScope(middleware.ScopeDocuments))
				}
				r.Post("/ingest", cfg.Documents.Ingest)
				r.Post("/ingest-batch", cfg.Documents.IngestBatch)
			})
		})
	})

	return r
}
