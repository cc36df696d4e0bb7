package agent

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/capitalize-ai/support-router/internal/model"
)

type fixedClassifier struct {
	routing Routing
}

func (c fixedClassifier) Classify(context.Context, string, model.History) Routing {
	return c.routing
}

func respondWith(resp *model.AgentResponse) Strategy {
	return strategyFunc(func(context.Context, string, model.History) (*model.AgentResponse, error) {
		out := *resp
		return &out, nil
	})
}

func TestOrchestratorEndToEndKnowledge(t *testing.T) {
	gen := newScriptedGenerator().
		on(routerSystemPrompt, "AGENT: KNOWLEDGE\nREASON: policy question").
		on(knowledgeSystemPrompt, "Returns are accepted within 30 days of delivery.")
	search := &stubSearcher{matches: []model.Match{match("Return Policy", "Returns within 30 days.", 0.9)}}

	o := NewOrchestrator(NewRouter(gen, nil), map[model.Intent]Strategy{
		model.IntentKnowledge:  NewKnowledgeAgent(gen, &stubEmbedder{}, search, 5, nil),
		model.IntentAction:     NewActionAgent(gen, NewActionExecutor(true), nil),
		model.IntentEscalation: NewEscalationAgent(gen, nil),
	}, nil)

	resp := o.ProcessMessage(context.Background(), "What is your return policy?", nil)
	if resp.Agent != string(model.IntentKnowledge) {
		t.Errorf("Agent = %q, want knowledge", resp.Agent)
	}
	if !reflect.DeepEqual(resp.Sources, []string{"Return Policy"}) {
		t.Errorf("Sources = %v", resp.Sources)
	}
	if resp.LatencyMs < 0 {
		t.Errorf("LatencyMs = %d", resp.LatencyMs)
	}
}

func TestOrchestratorStrategyError(t *testing.T) {
	o := NewOrchestrator(fixedClassifier{Routing{Intent: model.IntentAction}}, map[model.Intent]Strategy{
		model.IntentAction: strategyFunc(func(context.Context, string, model.History) (*model.AgentResponse, error) {
			return nil, errors.New("database exploded")
		}),
	}, nil)

	resp := o.ProcessMessage(context.Background(), "cancel", nil)
	if resp.Agent != model.AgentError || resp.Confidence != 0 || resp.Response != technicalDifficultyText {
		t.Errorf("resp = %+v", resp)
	}
}

func TestOrchestratorStrategyPanic(t *testing.T) {
	o := NewOrchestrator(fixedClassifier{Routing{Intent: model.IntentEscalation}}, map[model.Intent]Strategy{
		model.IntentEscalation: strategyFunc(func(context.Context, string, model.History) (*model.AgentResponse, error) {
			panic("index out of range")
		}),
	}, nil)

	var stages []Stage
	resp := o.ProcessMessageWithStages(context.Background(), "help", nil, func(s Stage, _ Routing) {
		stages = append(stages, s)
	})
	if resp == nil || resp.Agent != model.AgentError || resp.Confidence != 0 {
		t.Fatalf("resp = %+v", resp)
	}
	want := []Stage{StageRouting, StageDispatched, StageError}
	if !reflect.DeepEqual(stages, want) {
		t.Errorf("stages = %v, want %v", stages, want)
	}
}

func TestOrchestratorNilResponseIsError(t *testing.T) {
	o := NewOrchestrator(fixedClassifier{Routing{Intent: model.IntentKnowledge}}, map[model.Intent]Strategy{
		model.IntentKnowledge: strategyFunc(func(context.Context, string, model.History) (*model.AgentResponse, error) {
			return nil, nil
		}),
	}, nil)

	if resp := o.ProcessMessage(context.Background(), "hi", nil); resp.Agent != model.AgentError {
		t.Errorf("Agent = %q, want error", resp.Agent)
	}
}

func TestOrchestratorMissingStrategyFallsBackToKnowledge(t *testing.T) {
	o := NewOrchestrator(fixedClassifier{Routing{Intent: model.IntentEscalation}}, map[model.Intent]Strategy{
		model.IntentKnowledge: respondWith(&model.AgentResponse{Response: "kb", Confidence: 0.7}),
	}, nil)

	resp := o.ProcessMessage(context.Background(), "angry", nil)
	if resp.Agent != string(model.IntentKnowledge) || resp.Response != "kb" {
		t.Errorf("resp = %+v", resp)
	}

	empty := NewOrchestrator(fixedClassifier{Routing{Intent: model.IntentAction}}, nil, nil)
	if resp := empty.ProcessMessage(context.Background(), "x", nil); resp.Agent != model.AgentError {
		t.Errorf("no strategies: Agent = %q, want error", resp.Agent)
	}
}

func TestOrchestratorSetsAgentAndClamps(t *testing.T) {
	o := NewOrchestrator(fixedClassifier{Routing{Intent: model.IntentAction}}, map[model.Intent]Strategy{
		model.IntentAction: respondWith(&model.AgentResponse{Response: "done", Agent: "something-else", Confidence: 1.7}),
	}, nil)

	var stages []Stage
	var last Routing
	resp := o.ProcessMessageWithStages(context.Background(), "cancel", nil, func(s Stage, r Routing) {
		stages = append(stages, s)
		last = r
	})
	if resp.Agent != string(model.IntentAction) || resp.Confidence != 1 {
		t.Errorf("resp = %+v", resp)
	}
	if !reflect.DeepEqual(stages, []Stage{StageRouting, StageDispatched, StageComplete}) {
		t.Errorf("stages = %v", stages)
	}
	if last.Intent != model.IntentAction {
		t.Errorf("observed intent = %q", last.Intent)
	}
}

func TestOrchestratorRouterFailureStillAnswers(t *testing.T) {
	gen := newScriptedGenerator().
		fail(routerSystemPrompt, errUnavailable).
		on(knowledgeSystemPrompt, "Here is what I found.")
	o := NewOrchestrator(NewRouter(gen, nil), map[model.Intent]Strategy{
		model.IntentKnowledge: NewKnowledgeAgent(gen, &stubEmbedder{}, &stubSearcher{}, 5, nil),
	}, nil)

	resp := o.ProcessMessage(context.Background(), "Cancel order #12345", nil)
	if resp.Agent != string(model.IntentKnowledge) || resp.Response != "Here is what I found." {
		t.Errorf("resp = %+v", resp)
	}
}
