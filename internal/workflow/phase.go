// Package workflow tracks multi-phase development workflows and gates
// progression between phases on explicit human approval.
package workflow

// PhaseStatus is the lifecycle state of one workflow phase.
type PhaseStatus string

const (
	StatusPending          PhaseStatus = "pending"
	StatusInProgress       PhaseStatus = "in_progress"
	StatusAwaitingApproval PhaseStatus = "awaiting_approval"
	StatusApproved         PhaseStatus = "approved"
	StatusSkipped          PhaseStatus = "skipped"
)

// Terminal reports whether the status is final. Terminal phases are an
// audit trail and never mutate again.
func (s PhaseStatus) Terminal() bool {
	return s == StatusApproved || s == StatusSkipped
}

// Decision is a human resolution of a phase awaiting approval.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionRevise  Decision = "revise"
	DecisionSkip    Decision = "skip"
)

// Phase is one step of a workflow instance.
type Phase struct {
	Name        string      `json:"name"`
	Status      PhaseStatus `json:"status"`
	ActiveAgent string      `json:"active_agent,omitempty"`
}

// Instance is one workflow run. The tracker exclusively owns instance
// state: all mutation passes through the gate's transition functions.
type Instance struct {
	ID      string  `json:"id"`
	Phases  []Phase `json:"phases"`
	Current int     `json:"current"`
}

// CurrentPhase returns the phase at the current index, or nil when the
// workflow has run past its last phase.
func (w *Instance) CurrentPhase() *Phase {
	if w.Current >= len(w.Phases) {
		return nil
	}
	return &w.Phases[w.Current]
}

// Completed reports whether every phase has reached a terminal state.
func (w *Instance) Completed() bool {
	return w.Current >= len(w.Phases)
}

// PhaseApproved reports whether the named phase is Approved. Backs the
// phase_completed trigger kind.
func (w *Instance) PhaseApproved(name string) bool {
	for _, p := range w.Phases {
		if p.Name == name && p.Status == StatusApproved {
			return true
		}
	}
	return false
}

func (w *Instance) clone() *Instance {
	out := &Instance{ID: w.ID, Current: w.Current}
	out.Phases = make([]Phase, len(w.Phases))
	copy(out.Phases, w.Phases)
	return out
}
