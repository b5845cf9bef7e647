// Package router resolves a completed agent's declared handoffs and
// dispatches prompts to target agents over the bus. Handoffs with
// send=false are advisory: they become pending suggestions that wait
// for explicit user acceptance.
package router

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonlwowski012/agentfactory/internal/descriptor"
	"github.com/jonlwowski012/agentfactory/internal/natsbus"
	"github.com/jonlwowski012/agentfactory/internal/registry"
	"github.com/jonlwowski012/agentfactory/internal/store"
)

// Publisher pushes prompts and handoff events onto the bus. Satisfied
// by *natsbus.Client; nil makes dispatch a persistence-only operation.
type Publisher interface {
	Publish(topic string, data []byte) error
	PublishJSON(topic string, v any) error
}

// ResolvedHandoff pairs a declared handoff option with its resolved
// target definition.
type ResolvedHandoff struct {
	Option descriptor.Handoff
	Target *descriptor.AgentDefinition
}

type Router struct {
	registry *registry.Registry
	store    *store.Store
	pub      Publisher
}

func New(reg *registry.Registry, s *store.Store, pub Publisher) *Router {
	return &Router{
		registry: reg,
		store:    s,
		pub:      pub,
	}
}

// ResolveHandoffs returns the completed agent's handoff options in
// declaration order. The order is presentation-significant: the first
// option is the primary suggested next step.
func (r *Router) ResolveHandoffs(agentName string) ([]ResolvedHandoff, error) {
	def, err := r.registry.Get(agentName)
	if err != nil {
		return nil, err
	}

	resolved := make([]ResolvedHandoff, 0, len(def.Handoffs))
	for _, h := range def.Handoffs {
		target, err := r.registry.Get(h.Target)
		if err != nil {
			// Validate() rejects dangling targets at load time
			return nil, fmt.Errorf("resolve handoff target: %w", err)
		}
		resolved = append(resolved, ResolvedHandoff{Option: h, Target: target})
	}
	return resolved, nil
}

// Dispatch routes one handoff from a completed agent turn. A send=true
// option immediately publishes the prompt to the target's input topic;
// a send=false option is recorded as a pending suggestion and nothing
// is sent until Accept.
func (r *Router) Dispatch(runID, sourceAgent string, option descriptor.Handoff) (*store.Handoff, error) {
	if !r.registry.Has(option.Target) {
		return nil, fmt.Errorf("dispatch handoff: %w", &registry.UnknownAgentError{Name: option.Target})
	}

	h := &store.Handoff{
		ID:          uuid.New().String(),
		RunID:       runID,
		SourceAgent: sourceAgent,
		TargetAgent: option.Target,
		Label:       option.Label,
		Prompt:      option.Prompt,
		Status:      store.HandoffPending,
	}

	if option.Send {
		h.Status = store.HandoffDispatched
		if err := r.send(h); err != nil {
			return nil, err
		}
	}

	if err := r.store.SaveHandoff(h); err != nil {
		return nil, err
	}

	r.announce(h)
	return h, nil
}

// Accept dispatches a previously suggested handoff after explicit user
// selection.
func (r *Router) Accept(handoffID string) (*store.Handoff, error) {
	h, err := r.store.GetHandoff(handoffID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("handoff %s not found", handoffID)
	}

	if err := r.store.MarkHandoffDispatched(h.ID); err != nil {
		return nil, err
	}
	h.Status = store.HandoffDispatched

	if err := r.send(h); err != nil {
		return nil, err
	}

	r.announce(h)
	return h, nil
}

// PendingSuggestions lists undispatched handoffs for a run, oldest first.
func (r *Router) PendingSuggestions(runID string) ([]store.Handoff, error) {
	return r.store.ListPendingHandoffs(runID)
}

// Forward sends a non-command user message to the active agent's input
// topic untouched.
func (r *Router) Forward(agentName, text string) error {
	if !r.registry.Has(agentName) {
		return &registry.UnknownAgentError{Name: agentName}
	}
	if r.pub == nil {
		return fmt.Errorf("no publisher configured")
	}
	return r.pub.Publish(natsbus.TopicAgentInput(agentName), []byte(text))
}

func (r *Router) send(h *store.Handoff) error {
	if r.pub == nil {
		return nil
	}
	if err := r.pub.Publish(natsbus.TopicAgentInput(h.TargetAgent), []byte(h.Prompt)); err != nil {
		return fmt.Errorf("publish handoff prompt: %w", err)
	}
	slog.Info("handoff dispatched", "source", h.SourceAgent, "target", h.TargetAgent, "run", h.RunID)
	return nil
}

func (r *Router) announce(h *store.Handoff) {
	if r.pub == nil || h.RunID == "" {
		return
	}
	if err := r.pub.PublishJSON(natsbus.TopicHandoffEvents(h.RunID), h); err != nil {
		slog.Warn("publish handoff event failed", "run", h.RunID, "error", err)
	}
}
