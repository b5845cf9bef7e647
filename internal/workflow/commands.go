package workflow

import "strings"

// ParseCommand maps the user command channel onto gate decisions:
// /approve, /revise [feedback], /skip. Anything else is not a
// workflow-control command and is passed through to the active agent.
func ParseCommand(text string) (d Decision, feedback string, ok bool) {
	trimmed := strings.TrimSpace(text)

	switch {
	case trimmed == "/approve":
		return DecisionApprove, "", true
	case trimmed == "/skip":
		return DecisionSkip, "", true
	case trimmed == "/revise":
		return DecisionRevise, "", true
	case strings.HasPrefix(trimmed, "/revise "):
		return DecisionRevise, strings.TrimSpace(strings.TrimPrefix(trimmed, "/revise ")), true
	}
	return "", "", false
}
