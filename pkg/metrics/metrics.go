// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RoutingDecisionsTotal counts router classifications.
	RoutingDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routing_decisions_total",
			Help: "Messages classified by intent",
		},
		[]string{"intent", "fallback"},
	)

	// StrategyDuration tracks how long each strategy took to answer.
	StrategyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strategy_duration_seconds",
			Help:    "Strategy execution duration",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"agent", "outcome"},
	)

	// ResponseConfidence tracks the distribution of response confidence.
	ResponseConfidence = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "response_confidence",
			Help:    "Confidence attached to agent responses",
			Buckets: []float64{0, .3, .4, .5, .6, .7, .8, .85, .9, .95, 1},
		},
		[]string{"agent"},
	)

	// OrchestratorErrorsTotal counts responses produced by the last-resort error path.
	OrchestratorErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orchestrator_errors_total",
			Help: "Messages answered by the orchestrator error path",
		},
	)

	// LLMRequestDuration tracks LLM completion latency.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM completion duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"provider", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// DocumentsIngestedTotal counts ingested documents.
	DocumentsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_ingested_total",
			Help: "Documents ingested into the knowledge base",
		},
		[]string{"status"},
	)

	// ChunksIngestedTotal counts embedded chunks.
	ChunksIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chunks_ingested_total",
			Help: "Document chunks embedded and stored",
		},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// ConversationsTotal tracks total conversations created.
	ConversationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
	)

	// MessagesTotal tracks total messages stored.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages stored",
		},
		[]string{"role", "agent"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordRouting records a router decision.
func RecordRouting(intent string, fallback bool) {
	fb := "false"
	if fallback {
		fb = "true"
	}
	RoutingDecisionsTotal.WithLabelValues(intent, fb).Inc()
}

// RecordStrategy records one strategy execution.
func RecordStrategy(agent, outcome string, duration float64, confidence float64) {
	StrategyDuration.WithLabelValues(agent, outcome).Observe(duration)
	ResponseConfidence.WithLabelValues(agent).Observe(confidence)
}

// RecordLLM records metrics for an LLM completion.
func RecordLLM(provider, model, status string, duration float64, tokensIn, tokensOut int) {
	LLMRequestDuration.WithLabelValues(provider, status).Observe(duration)
	if status != "success" {
		return
	}
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordIngestion records the outcome of a document ingestion.
func RecordIngestion(status string, chunks int) {
	DocumentsIngestedTotal.WithLabelValues(status).Inc()
	ChunksIngestedTotal.Add(float64(chunks))
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
