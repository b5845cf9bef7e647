package registry

import (
	"fmt"
	"strings"
)

// UnknownAgentError reports a lookup for an agent that is not in the
// registry. Recoverable: callers surface it and keep running.
type UnknownAgentError struct {
	Name string
}

func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("unknown agent %q", e.Name)
}

// DanglingTarget is one unresolved handoff target and the agents that
// reference it.
type DanglingTarget struct {
	Target  string
	Sources []string
}

// DanglingHandoffError reports every handoff target that does not
// resolve to a registered agent. Fatal at load time: an inconsistent
// handoff graph would otherwise route to a nonexistent agent
// mid-workflow.
type DanglingHandoffError struct {
	Targets []DanglingTarget
}

func (e *DanglingHandoffError) Error() string {
	parts := make([]string, 0, len(e.Targets))
	for _, t := range e.Targets {
		parts = append(parts, fmt.Sprintf("%q (referenced by %s)", t.Target, strings.Join(t.Sources, ", ")))
	}
	return "dangling handoff targets: " + strings.Join(parts, "; ")
}
