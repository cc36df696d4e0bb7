package agent

import (
	"regexp"
	"strings"

	"github.com/capitalize-ai/support-router/internal/model"
)

const defaultRoutingReason = "Default routing"

var (
	agentLabelRe  = regexp.MustCompile(`(?i)AGENT:\s*\[?(\w+)`)
	agentReasonRe = regexp.MustCompile(`(?i)REASON:\s*(.+)`)

	actionLineRe      = regexp.MustCompile(`(?im)^[ \t]*ACTION:[ \t]*(.+)$`)
	parametersLineRe  = regexp.MustCompile(`(?im)^[ \t]*PARAMETERS:[ \t]*(.+)$`)
	explanationLineRe = regexp.MustCompile(`(?im)^[ \t]*EXPLANATION:[ \t]*(.+)$`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Routing is the outcome of classifying a message.
type Routing struct {
	Intent    model.Intent
	Label     string
	Rationale string
	// Fallback is set when the router could not reach the model and chose
	// the default intent.
	Fallback bool
}

// ParseRouting extracts the routing decision from a model reply of the form
// "AGENT: <name>\nREASON: <text>". Unrecognized or missing labels resolve to
// the knowledge intent.
func ParseRouting(reply string) Routing {
	label := ""
	if m := agentLabelRe.FindStringSubmatch(reply); m != nil {
		label = strings.ToUpper(m[1])
	}
	reason := defaultRoutingReason
	if m := agentReasonRe.FindStringSubmatch(reply); m != nil {
		if r := strings.TrimSpace(m[1]); r != "" {
			reason = r
		}
	}
	return Routing{
		Intent:    IntentFromLabel(label),
		Label:     label,
		Rationale: reason,
	}
}

// IntentFromLabel maps a model label to an intent. ACTION is checked before
// ESCALATION; anything else is knowledge.
func IntentFromLabel(label string) model.Intent {
	upper := strings.ToUpper(label)
	switch {
	case strings.Contains(upper, "ACTION"):
		return model.IntentAction
	case strings.Contains(upper, "ESCALATION"):
		return model.IntentEscalation
	default:
		return model.IntentKnowledge
	}
}

// ActionPlan is the structured reply of the action-selection call.
type ActionPlan struct {
	Action      string
	Parameters  string
	Explanation string
}

// ParseActionPlan extracts the ACTION, PARAMETERS and EXPLANATION lines from
// a model reply. ok is false when no ACTION line is present.
func ParseActionPlan(reply string) (plan ActionPlan, ok bool) {
	m := actionLineRe.FindStringSubmatch(reply)
	if m == nil {
		return ActionPlan{}, false
	}
	plan.Action = strings.TrimSpace(m[1])
	if plan.Action == "" {
		return ActionPlan{}, false
	}
	if m := parametersLineRe.FindStringSubmatch(reply); m != nil {
		plan.Parameters = strings.TrimSpace(m[1])
	}
	if m := explanationLineRe.FindStringSubmatch(reply); m != nil {
		plan.Explanation = strings.TrimSpace(m[1])
	}
	return plan, true
}

// NeedsMoreInfo reports whether the model asked for missing parameters.
func (p ActionPlan) NeedsMoreInfo() bool {
	return strings.Contains(strings.ToUpper(p.Parameters), "NEED_MORE_INFO")
}

// NormalizeAction upper-cases an action label and replaces whitespace runs
// with underscores. One pair of surrounding brackets is dropped, matching
// the "[action_name]" placeholder in the action prompt.
func NormalizeAction(action string) string {
	action = strings.TrimSpace(action)
	if len(action) >= 2 && action[0] == '[' && action[len(action)-1] == ']' {
		action = strings.TrimSpace(action[1 : len(action)-1])
	}
	return whitespaceRe.ReplaceAllString(strings.ToUpper(action), "_")
}
