package agent

import (
	"strings"

	"github.com/capitalize-ai/support-router/internal/model"
)

// historyWindow is the number of prior messages included in prompts.
const historyWindow = 5

// formatHistory renders the most recent messages as "role: content" lines,
// oldest first.
func formatHistory(h model.History) string {
	recent := h.Recent(historyWindow)
	lines := make([]string, len(recent))
	for i, m := range recent {
		lines[i] = string(m.Role) + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}
