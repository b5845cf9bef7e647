// Package trigger evaluates declarative trigger predicates against a
// workspace snapshot to decide which agents are eligible to activate.
package trigger

import (
	"log/slog"
	"strings"

	"github.com/jonlwowski012/agentfactory/internal/descriptor"
	"github.com/jonlwowski012/agentfactory/internal/registry"
)

// Snapshot is a read-only view of the environment supplied by the
// caller. Implementations carry no requirements beyond these queries.
type Snapshot interface {
	Exists(glob string) bool
	HasDependency(name string) bool
	LastCommand() string
	PhaseApproved(name string) bool
}

// WarnFunc receives non-fatal evaluation warnings. Unknown predicate
// kinds degrade to "no match" instead of failing so that new kinds do
// not break existing workflows.
type WarnFunc func(msg string, args ...any)

type Matcher struct {
	warn WarnFunc
}

func NewMatcher(warn WarnFunc) *Matcher {
	if warn == nil {
		warn = slog.Warn
	}
	return &Matcher{warn: warn}
}

// Matches evaluates one trigger predicate. It never fails: an
// unrecognized kind matches false and is reported via the warn callback.
func (m *Matcher) Matches(trig descriptor.Trigger, snap Snapshot) bool {
	switch trig.Kind {
	case descriptor.TriggerFileGlob:
		return snap.Exists(trig.Pattern)
	case descriptor.TriggerDependency:
		return snap.HasDependency(trig.Pattern)
	case descriptor.TriggerCommand:
		return matchesCommand(trig.Pattern, snap.LastCommand())
	case descriptor.TriggerPhaseCompleted:
		return snap.PhaseApproved(trig.Pattern)
	case descriptor.TriggerAlways:
		return true
	default:
		m.warn("unrecognized trigger kind", "kind", string(trig.Kind))
		return false
	}
}

// EligibleAgents returns the set of agent names for which at least one
// trigger matches. Ties between multiple eligible agents are left to
// the caller to resolve.
func (m *Matcher) EligibleAgents(reg *registry.Registry, snap Snapshot) map[string]bool {
	eligible := make(map[string]bool)
	for name, def := range reg.Definitions() {
		for _, trig := range def.Triggers {
			if m.Matches(trig, snap) {
				eligible[name] = true
				break
			}
		}
	}
	return eligible
}

// matchesCommand matches an explicit invocation like "/architecture",
// with or without trailing arguments.
func matchesCommand(pattern, command string) bool {
	if pattern == "" || command == "" {
		return false
	}
	if command == pattern {
		return true
	}
	return strings.HasPrefix(command, pattern+" ")
}
