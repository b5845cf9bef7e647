// Package registry loads agent descriptors from a directory, validates
// the handoff graph, and exposes lookup by name. The registry is
// immutable after Load+Validate and safe for concurrent readers.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jonlwowski012/agentfactory/internal/config"
	"github.com/jonlwowski012/agentfactory/internal/descriptor"
	"github.com/jonlwowski012/agentfactory/internal/store"
)

type Registry struct {
	store  *store.Store
	agents map[string]*descriptor.AgentDefinition
	paths  map[string]string // agent name -> source file
	cfg    config.AgentsConfig
}

func New(s *store.Store, cfg config.AgentsConfig) *Registry {
	return &Registry{
		store:  s,
		agents: make(map[string]*descriptor.AgentDefinition),
		paths:  make(map[string]string),
		cfg:    cfg,
	}
}

// Load parses every *.md descriptor under the configured directory.
// The first malformed, duplicate, or unsupported-trigger descriptor
// aborts the load: the gateway must not start on a partially-valid
// registry.
func (r *Registry) Load() error {
	entries, err := os.ReadDir(r.cfg.Dir)
	if err != nil {
		return fmt.Errorf("read agents dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		path := filepath.Join(r.cfg.Dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read descriptor %s: %w", path, err)
		}

		def, err := descriptor.Parse(path, data)
		if err != nil {
			return err
		}

		if prev, ok := r.paths[def.Name]; ok {
			return &descriptor.DuplicateAgentError{Name: def.Name, Paths: []string{prev, path}}
		}

		r.agents[def.Name] = def
		r.paths[def.Name] = path
	}

	return nil
}

// Validate checks that every handoff target resolves to a loaded agent.
// All dangling targets are collected into a single error so every
// problem surfaces in one pass.
func (r *Registry) Validate() error {
	dangling := make(map[string][]string) // target -> referencing agents

	for name, def := range r.agents {
		for _, h := range def.Handoffs {
			if _, ok := r.agents[h.Target]; !ok {
				dangling[h.Target] = append(dangling[h.Target], name)
			}
		}
	}

	if len(dangling) == 0 {
		return nil
	}

	err := &DanglingHandoffError{}
	for target, sources := range dangling {
		sort.Strings(sources)
		err.Targets = append(err.Targets, DanglingTarget{Target: target, Sources: sources})
	}
	sort.Slice(err.Targets, func(i, j int) bool { return err.Targets[i].Target < err.Targets[j].Target })
	return err
}

// Get returns the definition for name.
func (r *Registry) Get(name string) (*descriptor.AgentDefinition, error) {
	def, ok := r.agents[name]
	if !ok {
		return nil, &UnknownAgentError{Name: name}
	}
	return def, nil
}

// Has reports whether name is a registered agent.
func (r *Registry) Has(name string) bool {
	_, ok := r.agents[name]
	return ok
}

// Definitions returns all loaded definitions keyed by name.
func (r *Registry) Definitions() map[string]*descriptor.AgentDefinition {
	return r.agents
}

// Names returns all agent names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveModel returns the agent's model or the configured default.
func (r *Registry) ResolveModel(name string) string {
	if def, ok := r.agents[name]; ok && def.Model != "" {
		return def.Model
	}
	return r.cfg.DefaultModel
}

// Sync mirrors the loaded definitions into the store and removes rows
// for agents that no longer exist on disk.
func (r *Registry) Sync() error {
	ids := make([]string, 0, len(r.agents))
	for name, def := range r.agents {
		ids = append(ids, name)

		a := &store.Agent{
			ID:          name,
			Name:        name,
			Description: def.Description,
			Model:       r.ResolveModel(name),
			FilePath:    def.FilePath,
			Boundaries:  def.Boundaries,
		}
		if err := r.store.SaveAgent(a); err != nil {
			return fmt.Errorf("save agent %s: %w", name, err)
		}
	}

	if err := r.store.DeleteAgentsNotIn(ids); err != nil {
		return fmt.Errorf("delete stale agents: %w", err)
	}
	return nil
}
