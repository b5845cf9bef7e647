// Package descriptor defines agent descriptors and parses them from
// Markdown files with a YAML front matter header. The instruction body
// below the header is opaque to the orchestration core and is passed
// through unmodified to whatever renders the agent's behavior.
package descriptor

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// TriggerKind is the closed set of predicate kinds an agent trigger
// may declare. Prose conditions that cannot be expressed as one of
// these kinds are rejected at load time.
type TriggerKind string

const (
	TriggerFileGlob       TriggerKind = "file_glob"
	TriggerDependency     TriggerKind = "dependency"
	TriggerCommand        TriggerKind = "command"
	TriggerPhaseCompleted TriggerKind = "phase_completed"
	TriggerAlways         TriggerKind = "always"
)

// KnownTriggerKind reports whether kind is part of the closed predicate set.
func KnownTriggerKind(kind TriggerKind) bool {
	switch kind {
	case TriggerFileGlob, TriggerDependency, TriggerCommand, TriggerPhaseCompleted, TriggerAlways:
		return true
	}
	return false
}

type Trigger struct {
	Kind    TriggerKind `yaml:"kind"`
	Pattern string      `yaml:"pattern,omitempty"`
}

type Handoff struct {
	Target string `yaml:"target"`
	Label  string `yaml:"label,omitempty"`
	Prompt string `yaml:"prompt,omitempty"`
	Send   bool   `yaml:"send,omitempty"`
}

// AgentDefinition is one parsed descriptor. Boundaries and Instructions
// are free-text policy content: the core never parses or branches on them.
type AgentDefinition struct {
	Name        string    `yaml:"name"`
	Model       string    `yaml:"model,omitempty"`
	Description string    `yaml:"description,omitempty"`
	Triggers    []Trigger `yaml:"triggers,omitempty"`
	Handoffs    []Handoff `yaml:"handoffs,omitempty"`
	Boundaries  string    `yaml:"boundaries,omitempty"`

	Instructions string `yaml:"-"`
	FilePath     string `yaml:"-"`
}

const frontMatterDelim = "---"

// Parse splits a descriptor document into front matter and instruction
// body and decodes the header. The file name is recorded for error
// reporting only.
func Parse(path string, data []byte) (*AgentDefinition, error) {
	meta, body, err := splitFrontMatter(string(data))
	if err != nil {
		return nil, &MalformedDescriptorError{Path: path, Reason: err.Error()}
	}

	var def AgentDefinition
	if err := yaml.Unmarshal([]byte(meta), &def); err != nil {
		return nil, &MalformedDescriptorError{Path: path, Reason: fmt.Sprintf("parse front matter: %v", err)}
	}

	if def.Name == "" {
		return nil, &MalformedDescriptorError{Path: path, Reason: "missing required field: name"}
	}

	for _, trig := range def.Triggers {
		if !KnownTriggerKind(trig.Kind) {
			return nil, &UnsupportedTriggerError{Path: path, Agent: def.Name, Kind: string(trig.Kind)}
		}
	}

	for i, h := range def.Handoffs {
		if h.Target == "" {
			return nil, &MalformedDescriptorError{Path: path, Reason: fmt.Sprintf("handoff %d: missing target", i)}
		}
	}

	def.Instructions = strings.TrimLeft(body, "\n")
	def.FilePath = path
	return &def, nil
}

func splitFrontMatter(doc string) (meta, body string, err error) {
	rest, ok := strings.CutPrefix(doc, frontMatterDelim+"\n")
	if !ok {
		return "", "", fmt.Errorf("missing front matter header")
	}

	idx := strings.Index(rest, "\n"+frontMatterDelim)
	if idx < 0 {
		return "", "", fmt.Errorf("unterminated front matter header")
	}

	meta = rest[:idx]
	body = rest[idx+len(frontMatterDelim)+1:]
	// Drop the remainder of the closing delimiter line
	if nl := strings.Index(body, "\n"); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = ""
	}
	return meta, body, nil
}
