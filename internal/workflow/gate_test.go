package workflow

import (
	"errors"
	"testing"
)

func TestGateHappyPath(t *testing.T) {
	var g Gate
	p := &Phase{Name: "architecture", Status: StatusPending}

	if err := g.Activate(p, "architecture-agent"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if p.Status != StatusInProgress || p.ActiveAgent != "architecture-agent" {
		t.Errorf("unexpected phase after activate: %+v", p)
	}

	if err := g.RequestApproval(p); err != nil {
		t.Fatalf("request approval: %v", err)
	}
	if p.Status != StatusAwaitingApproval {
		t.Errorf("expected awaiting_approval, got %s", p.Status)
	}

	if err := g.Resolve(p, DecisionApprove); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.Status != StatusApproved {
		t.Errorf("expected approved, got %s", p.Status)
	}
}

func TestGateActivateNotPending(t *testing.T) {
	var g Gate
	p := &Phase{Name: "architecture", Status: StatusInProgress}

	err := g.Activate(p, "agent")
	var perr *PhaseNotPendingError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PhaseNotPendingError, got %v", err)
	}
	if perr.Status != StatusInProgress {
		t.Errorf("expected status in_progress in error, got %s", perr.Status)
	}
}

func TestGateRequestApprovalInvalid(t *testing.T) {
	var g Gate
	for _, status := range []PhaseStatus{StatusPending, StatusAwaitingApproval, StatusApproved, StatusSkipped} {
		p := &Phase{Name: "x", Status: status}
		err := g.RequestApproval(p)
		var ierr *InvalidTransitionError
		if !errors.As(err, &ierr) {
			t.Errorf("status %s: expected InvalidTransitionError, got %v", status, err)
		}
	}
}

func TestGateResolveRevise(t *testing.T) {
	var g Gate
	p := &Phase{Name: "architecture", Status: StatusAwaitingApproval, ActiveAgent: "architecture-agent"}

	if err := g.Resolve(p, DecisionRevise); err != nil {
		t.Fatalf("resolve revise: %v", err)
	}
	if p.Status != StatusPending {
		t.Errorf("expected pending after revise, got %s", p.Status)
	}
	if p.ActiveAgent != "" {
		t.Errorf("expected active agent cleared after revise, got %q", p.ActiveAgent)
	}
}

func TestGateResolveAlreadyResolved(t *testing.T) {
	var g Gate
	p := &Phase{Name: "architecture", Status: StatusAwaitingApproval}

	if err := g.Resolve(p, DecisionApprove); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	err := g.Resolve(p, DecisionApprove)
	var aerr *AlreadyResolvedError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AlreadyResolvedError on second resolve, got %v", err)
	}

	// Skipped phases are terminal too
	p = &Phase{Name: "x", Status: StatusSkipped}
	if err := g.Resolve(p, DecisionApprove); !errors.As(err, &aerr) {
		t.Fatalf("expected AlreadyResolvedError for skipped phase, got %v", err)
	}
}

func TestGateResolveNotAwaiting(t *testing.T) {
	var g Gate
	p := &Phase{Name: "x", Status: StatusInProgress}

	err := g.Resolve(p, DecisionApprove)
	var ierr *InvalidTransitionError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
}

func TestGateResolveUnknownDecision(t *testing.T) {
	var g Gate
	p := &Phase{Name: "x", Status: StatusAwaitingApproval}

	err := g.Resolve(p, Decision("defer"))
	var ierr *InvalidTransitionError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected InvalidTransitionError for unknown decision, got %v", err)
	}
	if p.Status != StatusAwaitingApproval {
		t.Errorf("expected phase unchanged, got %s", p.Status)
	}
}
