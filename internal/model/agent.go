package model

// Intent is the routing label chosen for a message.
type Intent string

const (
	IntentKnowledge  Intent = "knowledge"
	IntentAction     Intent = "action"
	IntentEscalation Intent = "escalation"
)

// AgentError is the agent label used when the orchestrator could not
// produce a strategy answer.
const AgentError = "error"

// String returns the label of the intent.
func (i Intent) String() string {
	return string(i)
}

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentKnowledge, IntentAction, IntentEscalation:
		return true
	}
	return false
}

// ActionResult is the structured outcome of an executed action.
type ActionResult struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AgentResponse is the answer produced for one message.
type AgentResponse struct {
	Response   string        `json:"response"`
	Agent      string        `json:"agent"`
	Confidence float64       `json:"confidence"`
	Sources    []string      `json:"sources,omitempty"`
	Action     *ActionResult `json:"action,omitempty"`
	LatencyMs  int64         `json:"latency_ms"`
}

// ClampConfidence limits c to the range [0, 1].
func ClampConfidence(c float64) float64 {
	switch {
	case c != c, c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
