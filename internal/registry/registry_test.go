package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonlwowski012/agentfactory/internal/config"
	"github.com/jonlwowski012/agentfactory/internal/descriptor"
	"github.com/jonlwowski012/agentfactory/internal/store"
)

func writeDescriptor(t *testing.T, dir, file, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}
}

func newTestRegistry(t *testing.T, dir string) (*Registry, *store.Store) {
	t.Helper()
	s, err := store.New(config.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	reg := New(s, config.AgentsConfig{Dir: dir, DefaultModel: "gpt-4.1"})
	return reg, s
}

func TestLoadAndValidate(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "architecture-agent.md", `---
name: architecture-agent
description: Designs system architecture
handoffs:
  - target: design-agent
    label: Continue to design
---
Architecture instructions.
`)
	writeDescriptor(t, dir, "design-agent.md", `---
name: design-agent
description: Produces detailed designs
---
Design instructions.
`)

	reg, _ := newTestRegistry(t, dir)
	if err := reg.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := reg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	def, err := reg.Get("architecture-agent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if def.Description != "Designs system architecture" {
		t.Errorf("unexpected description: %q", def.Description)
	}
	if len(def.Handoffs) != 1 || def.Handoffs[0].Target != "design-agent" {
		t.Errorf("unexpected handoffs: %+v", def.Handoffs)
	}
}

func TestValidateDanglingHandoff(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "a.md", `---
name: a
handoffs:
  - target: ghost
---
`)

	reg, _ := newTestRegistry(t, dir)
	if err := reg.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	err := reg.Validate()
	var derr *DanglingHandoffError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DanglingHandoffError, got %v", err)
	}
	if len(derr.Targets) != 1 || derr.Targets[0].Target != "ghost" {
		t.Fatalf("expected ghost target, got %+v", derr.Targets)
	}
	if len(derr.Targets[0].Sources) != 1 || derr.Targets[0].Sources[0] != "a" {
		t.Errorf("expected source 'a', got %v", derr.Targets[0].Sources)
	}
}

func TestValidateCollectsAllDangling(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "a.md", `---
name: a
handoffs:
  - target: ghost-one
  - target: ghost-two
---
`)
	writeDescriptor(t, dir, "b.md", `---
name: b
handoffs:
  - target: ghost-one
---
`)

	reg, _ := newTestRegistry(t, dir)
	if err := reg.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	err := reg.Validate()
	var derr *DanglingHandoffError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DanglingHandoffError, got %v", err)
	}
	if len(derr.Targets) != 2 {
		t.Fatalf("expected 2 dangling targets, got %d", len(derr.Targets))
	}
	// Sorted by target name
	if derr.Targets[0].Target != "ghost-one" || derr.Targets[1].Target != "ghost-two" {
		t.Errorf("unexpected targets: %+v", derr.Targets)
	}
	if len(derr.Targets[0].Sources) != 2 {
		t.Errorf("expected ghost-one referenced by 2 agents, got %v", derr.Targets[0].Sources)
	}
}

func TestLoadDuplicateAgent(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "one.md", "---\nname: same\n---\n")
	writeDescriptor(t, dir, "two.md", "---\nname: same\n---\n")

	reg, _ := newTestRegistry(t, dir)
	err := reg.Load()

	var derr *descriptor.DuplicateAgentError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DuplicateAgentError, got %v", err)
	}
	if derr.Name != "same" {
		t.Errorf("expected duplicate name 'same', got %q", derr.Name)
	}
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "bad.md", "no front matter at all\n")

	reg, _ := newTestRegistry(t, dir)
	err := reg.Load()

	var merr *descriptor.MalformedDescriptorError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MalformedDescriptorError, got %v", err)
	}
}

func TestGetUnknownAgent(t *testing.T) {
	reg, _ := newTestRegistry(t, t.TempDir())
	_ = reg.Load()

	_, err := reg.Get("nope")
	var uerr *UnknownAgentError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UnknownAgentError, got %v", err)
	}
}

func TestResolveModel(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "coder.md", "---\nname: coder\nmodel: claude-sonnet-4\n---\n")
	writeDescriptor(t, dir, "general.md", "---\nname: general\n---\n")

	reg, _ := newTestRegistry(t, dir)
	if err := reg.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	if m := reg.ResolveModel("coder"); m != "claude-sonnet-4" {
		t.Errorf("expected coder model claude-sonnet-4, got %q", m)
	}
	if m := reg.ResolveModel("general"); m != "gpt-4.1" {
		t.Errorf("expected general model gpt-4.1, got %q", m)
	}
}

func TestSync(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "a.md", "---\nname: a\ndescription: Agent A\n---\n")

	reg, s := newTestRegistry(t, dir)
	if err := reg.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	// Pre-seed a stale agent row
	_ = s.SaveAgent(&store.Agent{ID: "stale", Name: "stale"})

	if err := reg.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	agents, err := s.ListAgents()
	if err != nil {
		t.Fatalf("list agents: %v", err)
	}
	if len(agents) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(agents))
	}
	if agents[0].ID != "a" || agents[0].Model != "gpt-4.1" {
		t.Errorf("unexpected synced agent: %+v", agents[0])
	}
}
