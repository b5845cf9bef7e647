package descriptor

import (
	"errors"
	"strings"
	"testing"
)

const sampleDoc = `---
name: architecture-agent
model: gpt-4.1
description: Designs system architecture for new features
triggers:
  - kind: command
    pattern: /architecture
  - kind: file_glob
    pattern: "docs/planning/*.md"
handoffs:
  - target: data-architecture-agent
    label: Continue to data architecture
    prompt: Design the data model for the approved architecture.
  - target: orchestrator-agent
    label: Return to orchestrator
boundaries: |
  Always: produce a design document.
  Never: write implementation code.
---

# Architecture Agent

You are the architecture agent. Design before code.
`

func TestParse(t *testing.T) {
	def, err := Parse("architecture-agent.md", []byte(sampleDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if def.Name != "architecture-agent" {
		t.Errorf("expected name architecture-agent, got %q", def.Name)
	}
	if def.Model != "gpt-4.1" {
		t.Errorf("expected model gpt-4.1, got %q", def.Model)
	}
	if len(def.Triggers) != 2 {
		t.Fatalf("expected 2 triggers, got %d", len(def.Triggers))
	}
	if def.Triggers[0].Kind != TriggerCommand || def.Triggers[0].Pattern != "/architecture" {
		t.Errorf("unexpected first trigger: %+v", def.Triggers[0])
	}
	if len(def.Handoffs) != 2 {
		t.Fatalf("expected 2 handoffs, got %d", len(def.Handoffs))
	}
	if def.Handoffs[0].Target != "data-architecture-agent" {
		t.Errorf("unexpected first handoff target: %q", def.Handoffs[0].Target)
	}
	if def.Handoffs[0].Send {
		t.Error("expected send to default to false")
	}
	if !strings.Contains(def.Boundaries, "Never: write implementation code.") {
		t.Errorf("boundaries not carried through: %q", def.Boundaries)
	}
	if !strings.HasPrefix(def.Instructions, "# Architecture Agent") {
		t.Errorf("unexpected instruction body start: %q", def.Instructions)
	}
}

func TestParseMissingName(t *testing.T) {
	doc := "---\ndescription: no name here\n---\nbody\n"
	_, err := Parse("anon.md", []byte(doc))

	var merr *MalformedDescriptorError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MalformedDescriptorError, got %v", err)
	}
	if !strings.Contains(merr.Reason, "name") {
		t.Errorf("expected reason to mention name, got %q", merr.Reason)
	}
}

func TestParseNoFrontMatter(t *testing.T) {
	_, err := Parse("plain.md", []byte("# Just a markdown file\n"))

	var merr *MalformedDescriptorError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MalformedDescriptorError, got %v", err)
	}
}

func TestParseUnterminatedFrontMatter(t *testing.T) {
	_, err := Parse("broken.md", []byte("---\nname: x\nno closing delimiter"))

	var merr *MalformedDescriptorError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MalformedDescriptorError, got %v", err)
	}
}

func TestParseUnsupportedTrigger(t *testing.T) {
	doc := `---
name: frontend-react-agent
triggers:
  - kind: vibe_check
    pattern: feels ready
---
body
`
	_, err := Parse("frontend-react-agent.md", []byte(doc))

	var uerr *UnsupportedTriggerError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UnsupportedTriggerError, got %v", err)
	}
	if uerr.Kind != "vibe_check" {
		t.Errorf("expected kind vibe_check, got %q", uerr.Kind)
	}
	if uerr.Agent != "frontend-react-agent" {
		t.Errorf("expected agent frontend-react-agent, got %q", uerr.Agent)
	}
}

func TestParseHandoffMissingTarget(t *testing.T) {
	doc := `---
name: a
handoffs:
  - label: dangling
---
`
	_, err := Parse("a.md", []byte(doc))
	var merr *MalformedDescriptorError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MalformedDescriptorError, got %v", err)
	}
}

func TestKnownTriggerKind(t *testing.T) {
	for _, kind := range []TriggerKind{TriggerFileGlob, TriggerDependency, TriggerCommand, TriggerPhaseCompleted, TriggerAlways} {
		if !KnownTriggerKind(kind) {
			t.Errorf("expected %q to be known", kind)
		}
	}
	if KnownTriggerKind("telepathy") {
		t.Error("expected telepathy to be unknown")
	}
}
