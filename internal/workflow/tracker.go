package workflow

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jonlwowski012/agentfactory/internal/natsbus"
	"github.com/jonlwowski012/agentfactory/internal/store"
)

const (
	RunRunning   = "running"
	RunCompleted = "completed"
)

// EventPublisher pushes workflow events onto the bus. Satisfied by
// *natsbus.Client; nil disables publishing.
type EventPublisher interface {
	PublishJSON(topic string, v any) error
}

// Event is emitted on every phase transition.
type Event struct {
	Type     string      `json:"type"`
	RunID    string      `json:"run_id"`
	Phase    string      `json:"phase"`
	Index    int         `json:"index"`
	Status   PhaseStatus `json:"status"`
	Agent    string      `json:"agent,omitempty"`
	Decision Decision    `json:"decision,omitempty"`
	Feedback string      `json:"feedback,omitempty"`
}

// Tracker owns all workflow instances. One mutex serializes every
// mutation, so the non-reentrant gate is never entered concurrently.
type Tracker struct {
	store  *store.Store
	events EventPublisher
	gate   Gate

	mu        sync.Mutex
	instances map[string]*Instance
}

func NewTracker(s *store.Store, events EventPublisher) *Tracker {
	return &Tracker{
		store:     s,
		events:    events,
		instances: make(map[string]*Instance),
	}
}

// Start creates a new workflow instance with every phase pending.
func (t *Tracker) Start(phaseNames []string) (*Instance, error) {
	if len(phaseNames) == 0 {
		return nil, ErrEmptyWorkflow
	}

	inst := &Instance{ID: uuid.New().String()}
	for _, name := range phaseNames {
		inst.Phases = append(inst.Phases, Phase{Name: name, Status: StatusPending})
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.instances[inst.ID] = inst
	if err := t.persist(inst); err != nil {
		delete(t.instances, inst.ID)
		return nil, err
	}

	t.publish(Event{Type: "workflow.started", RunID: inst.ID, Phase: inst.Phases[0].Name, Status: StatusPending})
	slog.Info("workflow started", "run", inst.ID, "phases", len(inst.Phases))
	return inst.clone(), nil
}

// Get returns a copy of the instance for reading.
func (t *Tracker) Get(id string) (*Instance, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	inst, ok := t.instances[id]
	if !ok {
		return nil, &UnknownWorkflowError{ID: id}
	}
	return inst.clone(), nil
}

// List returns copies of all tracked instances.
func (t *Tracker) List() []*Instance {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Instance, 0, len(t.instances))
	for _, inst := range t.instances {
		out = append(out, inst.clone())
	}
	return out
}

// Activate marks the current phase in progress under the given agent.
func (t *Tracker) Activate(id, agent string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	inst, ok := t.instances[id]
	if !ok {
		return &UnknownWorkflowError{ID: id}
	}
	p := inst.CurrentPhase()
	if p == nil {
		return &AlreadyResolvedError{Phase: "", Status: StatusApproved}
	}

	if err := t.gate.Activate(p, agent); err != nil {
		return err
	}
	if err := t.persist(inst); err != nil {
		return err
	}

	t.publish(Event{Type: "phase.activated", RunID: id, Phase: p.Name, Index: inst.Current, Status: p.Status, Agent: agent})
	slog.Info("phase activated", "run", id, "phase", p.Name, "agent", agent)
	return nil
}

// RequestApproval suspends the current phase pending a human decision
// and returns control to the caller.
func (t *Tracker) RequestApproval(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	inst, ok := t.instances[id]
	if !ok {
		return &UnknownWorkflowError{ID: id}
	}
	p := inst.CurrentPhase()
	if p == nil {
		return &AlreadyResolvedError{Phase: "", Status: StatusApproved}
	}

	if err := t.gate.RequestApproval(p); err != nil {
		return err
	}
	if err := t.persist(inst); err != nil {
		return err
	}

	t.publish(Event{Type: "phase.awaiting_approval", RunID: id, Phase: p.Name, Index: inst.Current, Status: p.Status, Agent: p.ActiveAgent})
	slog.Info("phase awaiting approval", "run", id, "phase", p.Name)
	return nil
}

// Resolve applies a decision to the current phase. Approve and Skip
// advance the forward-only phase index; Revise leaves it unchanged.
// Feedback accompanies Revise decisions and rides the emitted event.
func (t *Tracker) Resolve(id string, d Decision, feedback string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	inst, ok := t.instances[id]
	if !ok {
		return &UnknownWorkflowError{ID: id}
	}
	p := inst.CurrentPhase()
	if p == nil {
		return &AlreadyResolvedError{Phase: "", Status: StatusApproved}
	}
	idx := inst.Current

	if err := t.gate.Resolve(p, d); err != nil {
		return err
	}
	if p.Status.Terminal() {
		inst.Current++
	}
	if err := t.persist(inst); err != nil {
		return err
	}

	t.publish(Event{Type: "phase.resolved", RunID: id, Phase: p.Name, Index: idx, Status: p.Status, Agent: p.ActiveAgent, Decision: d, Feedback: feedback})
	if inst.Completed() {
		t.publish(Event{Type: "workflow.completed", RunID: id, Status: p.Status, Index: idx, Phase: p.Name})
		slog.Info("workflow completed", "run", id)
	} else {
		slog.Info("phase resolved", "run", id, "phase", p.Name, "decision", d)
	}
	return nil
}

// PhaseApproved reports whether the named phase of the given run is
// approved. Unknown runs report false.
func (t *Tracker) PhaseApproved(id, name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	inst, ok := t.instances[id]
	if !ok {
		return false
	}
	return inst.PhaseApproved(name)
}

// persist writes the run row and every phase row. Called with the
// tracker mutex held.
func (t *Tracker) persist(inst *Instance) error {
	if t.store == nil {
		return nil
	}

	status := RunRunning
	if inst.Completed() {
		status = RunCompleted
	}
	phases := make([]string, len(inst.Phases))
	for i, p := range inst.Phases {
		phases[i] = p.Name
	}

	run := &store.WorkflowRun{ID: inst.ID, Phases: phases, CurrentIndex: inst.Current, Status: status}
	if err := t.store.SaveWorkflowRun(run); err != nil {
		return fmt.Errorf("persist run: %w", err)
	}
	for i, p := range inst.Phases {
		row := &store.WorkflowPhaseRow{
			RunID:       inst.ID,
			Index:       i,
			Name:        p.Name,
			Status:      string(p.Status),
			ActiveAgent: p.ActiveAgent,
		}
		if err := t.store.SaveWorkflowPhase(row); err != nil {
			return fmt.Errorf("persist phase %d: %w", i, err)
		}
	}
	return nil
}

func (t *Tracker) publish(ev Event) {
	if t.events == nil {
		return
	}
	if err := t.events.PublishJSON(natsbus.TopicWorkflowEvents(ev.RunID), ev); err != nil {
		slog.Warn("publish workflow event failed", "run", ev.RunID, "type", ev.Type, "error", err)
	}
}
