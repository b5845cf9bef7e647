package router

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonlwowski012/agentfactory/internal/config"
	"github.com/jonlwowski012/agentfactory/internal/descriptor"
	"github.com/jonlwowski012/agentfactory/internal/natsbus"
	"github.com/jonlwowski012/agentfactory/internal/registry"
	"github.com/jonlwowski012/agentfactory/internal/store"
)

type fakePublisher struct {
	published map[string][]string
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{published: make(map[string][]string)}
}

func (f *fakePublisher) Publish(topic string, data []byte) error {
	f.published[topic] = append(f.published[topic], string(data))
	return nil
}

func (f *fakePublisher) PublishJSON(topic string, v any) error {
	f.published[topic] = append(f.published[topic], "json")
	return nil
}

func newTestRouter(t *testing.T) (*Router, *store.Store, *fakePublisher) {
	t.Helper()

	dir := t.TempDir()
	descriptors := map[string]string{
		"architecture-agent.md": `---
name: architecture-agent
handoffs:
  - target: data-architecture-agent
    label: Continue to data architecture
    prompt: Design the data model.
  - target: test-design-agent
    label: Plan the test strategy
    prompt: Derive the test plan.
  - target: orchestrator-agent
    label: Return to orchestrator
    prompt: Summarize and continue the workflow.
---
`,
		"data-architecture-agent.md": "---\nname: data-architecture-agent\n---\n",
		"test-design-agent.md":       "---\nname: test-design-agent\n---\n",
		"orchestrator-agent.md":      "---\nname: orchestrator-agent\n---\n",
		"auto-agent.md": `---
name: auto-agent
handoffs:
  - target: orchestrator-agent
    label: Auto-continue
    prompt: Carry on.
    send: true
---
`,
	}
	for file, content := range descriptors {
		if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	s, err := store.New(config.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	reg := registry.New(s, config.AgentsConfig{Dir: dir})
	if err := reg.Load(); err != nil {
		t.Fatalf("load registry: %v", err)
	}
	if err := reg.Validate(); err != nil {
		t.Fatalf("validate registry: %v", err)
	}

	pub := newFakePublisher()
	return New(reg, s, pub), s, pub
}

func TestResolveHandoffsPreservesOrder(t *testing.T) {
	r, _, _ := newTestRouter(t)

	resolved, err := r.ResolveHandoffs("architecture-agent")
	if err != nil {
		t.Fatalf("resolve handoffs: %v", err)
	}
	if len(resolved) != 3 {
		t.Fatalf("expected 3 handoffs, got %d", len(resolved))
	}

	want := []string{"data-architecture-agent", "test-design-agent", "orchestrator-agent"}
	for i, target := range want {
		if resolved[i].Option.Target != target {
			t.Errorf("position %d: expected %s, got %s", i, target, resolved[i].Option.Target)
		}
		if resolved[i].Target == nil || resolved[i].Target.Name != target {
			t.Errorf("position %d: target definition not resolved", i)
		}
	}
}

func TestResolveHandoffsUnknownAgent(t *testing.T) {
	r, _, _ := newTestRouter(t)

	_, err := r.ResolveHandoffs("nope")
	if err == nil {
		t.Fatal("expected error for unknown agent")
	}
}

func TestDispatchSuggestionHasNoSideEffect(t *testing.T) {
	r, _, pub := newTestRouter(t)

	opt := descriptor.Handoff{
		Target: "data-architecture-agent",
		Label:  "Continue to data architecture",
		Prompt: "Design the data model.",
	}
	h, err := r.Dispatch("run-1", "architecture-agent", opt)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if h.Status != store.HandoffPending {
		t.Errorf("expected pending status, got %s", h.Status)
	}

	// No prompt was published to the target agent
	topic := natsbus.TopicAgentInput("data-architecture-agent")
	if len(pub.published[topic]) != 0 {
		t.Errorf("expected no prompt publish for send=false, got %v", pub.published[topic])
	}

	pending, err := r.PendingSuggestions("run-1")
	if err != nil {
		t.Fatalf("pending suggestions: %v", err)
	}
	if len(pending) != 1 || pending[0].TargetAgent != "data-architecture-agent" {
		t.Fatalf("unexpected pending suggestions: %+v", pending)
	}
}

func TestDispatchSendPublishesPrompt(t *testing.T) {
	r, _, pub := newTestRouter(t)

	opt := descriptor.Handoff{
		Target: "orchestrator-agent",
		Prompt: "Carry on.",
		Send:   true,
	}
	h, err := r.Dispatch("run-1", "auto-agent", opt)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if h.Status != store.HandoffDispatched {
		t.Errorf("expected dispatched status, got %s", h.Status)
	}

	topic := natsbus.TopicAgentInput("orchestrator-agent")
	if len(pub.published[topic]) != 1 || pub.published[topic][0] != "Carry on." {
		t.Errorf("expected prompt publish, got %v", pub.published[topic])
	}
}

func TestDispatchUnknownTarget(t *testing.T) {
	r, _, _ := newTestRouter(t)

	_, err := r.Dispatch("run-1", "architecture-agent", descriptor.Handoff{Target: "ghost"})
	if err == nil {
		t.Fatal("expected error for unknown target")
	}
}

func TestAccept(t *testing.T) {
	r, _, pub := newTestRouter(t)

	opt := descriptor.Handoff{
		Target: "test-design-agent",
		Prompt: "Derive the test plan.",
	}
	h, err := r.Dispatch("run-1", "architecture-agent", opt)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	accepted, err := r.Accept(h.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != store.HandoffDispatched {
		t.Errorf("expected dispatched, got %s", accepted.Status)
	}

	topic := natsbus.TopicAgentInput("test-design-agent")
	if len(pub.published[topic]) != 1 || pub.published[topic][0] != "Derive the test plan." {
		t.Errorf("expected prompt publish on accept, got %v", pub.published[topic])
	}

	// Accepting twice fails
	if _, err := r.Accept(h.ID); err == nil {
		t.Error("expected error accepting an already dispatched handoff")
	}
}

func TestAcceptUnknownHandoff(t *testing.T) {
	r, _, _ := newTestRouter(t)

	if _, err := r.Accept("nope"); err == nil {
		t.Fatal("expected error for unknown handoff")
	}
}

func TestForward(t *testing.T) {
	r, _, pub := newTestRouter(t)

	if err := r.Forward("architecture-agent", "what did you decide about caching?"); err != nil {
		t.Fatalf("forward: %v", err)
	}

	topic := natsbus.TopicAgentInput("architecture-agent")
	if len(pub.published[topic]) != 1 {
		t.Fatalf("expected 1 forwarded message, got %d", len(pub.published[topic]))
	}

	if err := r.Forward("ghost", "hello"); err == nil {
		t.Error("expected error forwarding to unknown agent")
	}
}
