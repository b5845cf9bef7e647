package workflow

import (
	"errors"
	"fmt"
)

// ErrEmptyWorkflow is returned when a workflow is started with no phases.
var ErrEmptyWorkflow = errors.New("workflow has no phases")

// UnknownWorkflowError reports a lookup for a workflow run the tracker
// does not know.
type UnknownWorkflowError struct {
	ID string
}

func (e *UnknownWorkflowError) Error() string {
	return fmt.Sprintf("unknown workflow %q", e.ID)
}

// PhaseNotPendingError reports an activation attempt on a phase that
// has already started.
type PhaseNotPendingError struct {
	Phase  string
	Status PhaseStatus
}

func (e *PhaseNotPendingError) Error() string {
	return fmt.Sprintf("phase %q is %s, not pending", e.Phase, e.Status)
}

// InvalidTransitionError reports a transition the phase state machine
// does not allow. Signals a caller logic bug and is surfaced to the
// operator rather than swallowed.
type InvalidTransitionError struct {
	Phase  string
	From   PhaseStatus
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s phase %q in state %s", e.Action, e.Phase, e.From)
}

// AlreadyResolvedError reports a decision applied to a phase that is
// already terminal. Prevents accidental double-advance of the current
// phase index.
type AlreadyResolvedError struct {
	Phase  string
	Status PhaseStatus
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("phase %q is already %s", e.Phase, e.Status)
}
