package workflow

// Gate is the single chokepoint for phase transitions:
//
//	Pending -> InProgress -> AwaitingApproval -> {Approved | Skipped}
//
// with Revise as a self-loop AwaitingApproval -> Pending. Approved and
// Skipped are terminal. The gate is not reentrant; callers serialize
// access (the tracker holds one mutex across all instances).
type Gate struct{}

// Activate marks a pending phase in progress under the given agent.
func (Gate) Activate(p *Phase, agent string) error {
	if p.Status != StatusPending {
		return &PhaseNotPendingError{Phase: p.Name, Status: p.Status}
	}
	p.Status = StatusInProgress
	p.ActiveAgent = agent
	return nil
}

// RequestApproval suspends an in-progress phase pending a human
// decision. No further mutation occurs until Resolve is invoked.
func (Gate) RequestApproval(p *Phase) error {
	if p.Status != StatusInProgress {
		return &InvalidTransitionError{Phase: p.Name, From: p.Status, Action: "request approval for"}
	}
	p.Status = StatusAwaitingApproval
	return nil
}

// Resolve applies a decision to a phase awaiting approval. Approve and
// Skip terminalize the phase; Revise resets it to Pending so the same
// or a different agent can be re-activated. Resolving a terminal phase
// fails with AlreadyResolvedError rather than silently succeeding.
func (Gate) Resolve(p *Phase, d Decision) error {
	if p.Status.Terminal() {
		return &AlreadyResolvedError{Phase: p.Name, Status: p.Status}
	}
	if p.Status != StatusAwaitingApproval {
		return &InvalidTransitionError{Phase: p.Name, From: p.Status, Action: "resolve"}
	}

	switch d {
	case DecisionApprove:
		p.Status = StatusApproved
	case DecisionSkip:
		p.Status = StatusSkipped
	case DecisionRevise:
		p.Status = StatusPending
		p.ActiveAgent = ""
	default:
		return &InvalidTransitionError{Phase: p.Name, From: p.Status, Action: "apply decision " + string(d) + " to"}
	}
	return nil
}
