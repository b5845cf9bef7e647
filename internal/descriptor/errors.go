package descriptor

import (
	"fmt"
	"strings"
)

// MalformedDescriptorError reports a descriptor that could not be parsed
// or is missing required fields.
type MalformedDescriptorError struct {
	Path   string
	Reason string
}

func (e *MalformedDescriptorError) Error() string {
	return fmt.Sprintf("malformed descriptor %s: %s", e.Path, e.Reason)
}

// DuplicateAgentError reports two descriptors declaring the same name.
type DuplicateAgentError struct {
	Name  string
	Paths []string
}

func (e *DuplicateAgentError) Error() string {
	return fmt.Sprintf("duplicate agent %q declared in %s", e.Name, strings.Join(e.Paths, ", "))
}

// UnsupportedTriggerError reports a trigger kind outside the closed
// predicate set. Rejected at load time so the registry's eligibility
// guarantees stay sound.
type UnsupportedTriggerError struct {
	Path  string
	Agent string
	Kind  string
}

func (e *UnsupportedTriggerError) Error() string {
	return fmt.Sprintf("agent %q (%s): unsupported trigger kind %q", e.Agent, e.Path, e.Kind)
}
