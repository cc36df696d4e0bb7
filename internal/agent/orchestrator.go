package agent

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/support-router/internal/model"
	"github.com/capitalize-ai/support-router/pkg/logger"
	"github.com/capitalize-ai/support-router/pkg/metrics"
)

const technicalDifficultyText = "I apologize, but I'm experiencing technical difficulties. Please try again in a moment."

// Stage is a step of message processing.
type Stage string

const (
	StageRouting    Stage = "routing"
	StageDispatched Stage = "dispatched"
	StageComplete   Stage = "complete"
	StageError      Stage = "error"
)

// StageFunc observes stage transitions. routing is the zero value until
// classification has finished.
type StageFunc func(stage Stage, routing Routing)

// Orchestrator classifies a message and hands it to exactly one strategy.
type Orchestrator struct {
	router     Classifier
	strategies map[model.Intent]Strategy
	log        *logger.Logger
	now        func() time.Time
}

// NewOrchestrator creates an orchestrator. Intents without a strategy fall
// back to the knowledge strategy.
func NewOrchestrator(router Classifier, strategies map[model.Intent]Strategy, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Orchestrator{
		router:     router,
		strategies: strategies,
		log:        log.Named("orchestrator"),
		now:        time.Now,
	}
}

// ProcessMessage answers text. It never returns nil and never panics.
func (o *Orchestrator) ProcessMessage(ctx context.Context, text string, history model.History) *model.AgentResponse {
	return o.ProcessMessageWithStages(ctx, text, history, nil)
}

// ProcessMessageWithStages is ProcessMessage with a stage observer.
func (o *Orchestrator) ProcessMessageWithStages(ctx context.Context, text string, history model.History, observe StageFunc) (resp *model.AgentResponse) {
	start := o.now()
	ctx, span := tracer.Start(ctx, "orchestrator.process")
	defer span.End()

	if observe == nil {
		observe = func(Stage, Routing) {}
	}

	var routing Routing
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			resp = o.fail(span, routing, err, observe)
		}
		resp.LatencyMs = o.now().Sub(start).Milliseconds()
	}()

	observe(StageRouting, routing)
	routing = o.router.Classify(ctx, text, history)
	span.SetAttributes(
		attribute.String("routing.intent", string(routing.Intent)),
		attribute.Bool("routing.fallback", routing.Fallback),
	)

	intent := routing.Intent
	strategy, ok := o.strategies[intent]
	if !ok {
		intent = model.IntentKnowledge
		strategy, ok = o.strategies[intent]
		routing.Intent = intent
	}
	if !ok {
		return o.fail(span, routing, fmt.Errorf("no strategy for intent %q", routing.Intent), observe)
	}

	observe(StageDispatched, routing)
	strategyStart := o.now()
	out, err := strategy.Respond(ctx, text, history)
	if err == nil && out == nil {
		err = fmt.Errorf("strategy %q returned no response", intent)
	}
	if err != nil {
		metrics.RecordStrategy(string(intent), "error", o.now().Sub(strategyStart).Seconds(), 0)
		return o.fail(span, routing, err, observe)
	}

	out.Agent = string(intent)
	out.Confidence = model.ClampConfidence(out.Confidence)
	metrics.RecordStrategy(string(intent), "success", o.now().Sub(strategyStart).Seconds(), out.Confidence)

	observe(StageComplete, routing)
	o.log.Info("Message processed",
		zap.String("intent", string(intent)),
		zap.String("reason", routing.Rationale),
		zap.Bool("fallback", routing.Fallback),
		zap.Float64("confidence", out.Confidence),
	)
	return out
}

func (o *Orchestrator) fail(span trace.Span, routing Routing, err error, observe StageFunc) *model.AgentResponse {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.OrchestratorErrorsTotal.Inc()
	o.log.Error("Message processing failed",
		zap.String("intent", string(routing.Intent)),
		zap.Error(err),
	)
	func() {
		defer func() { _ = recover() }()
		observe(StageError, routing)
	}()
	return &model.AgentResponse{
		Response:   technicalDifficultyText,
		Agent:      model.AgentError,
		Confidence: 0,
	}
}
