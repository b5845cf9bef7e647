// Package workspace provides a filesystem-backed snapshot of the
// environment the trigger matcher evaluates against: file globs,
// dependency manifests, and the last user command.
package workspace

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// PhaseChecker reports whether a named workflow phase has been
// approved. Wired by the caller that owns workflow state.
type PhaseChecker func(name string) bool

type Snapshot struct {
	root   string
	phases PhaseChecker

	mu      sync.RWMutex
	command string
	deps    map[string]bool
	scanned bool
}

func New(root string, phases PhaseChecker) *Snapshot {
	if phases == nil {
		phases = func(string) bool { return false }
	}
	return &Snapshot{root: root, phases: phases}
}

// Exists reports whether any file under the workspace root matches the
// glob. Patterns with a path separator match relative to the root;
// bare patterns like "*.tsx" match file names anywhere in the tree.
func (s *Snapshot) Exists(glob string) bool {
	if glob == "" {
		return false
	}

	if strings.ContainsRune(glob, filepath.Separator) || strings.Contains(glob, "/") {
		matches, err := filepath.Glob(filepath.Join(s.root, filepath.FromSlash(glob)))
		return err == nil && len(matches) > 0
	}

	found := false
	_ = filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || found {
			return filepath.SkipAll
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(glob, d.Name()); ok {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

// HasDependency reports whether the workspace declares the named
// dependency in package.json, go.mod, or requirements.txt.
func (s *Snapshot) HasDependency(name string) bool {
	s.mu.Lock()
	if !s.scanned {
		s.deps = scanManifests(s.root)
		s.scanned = true
	}
	deps := s.deps
	s.mu.Unlock()

	return deps[strings.ToLower(name)]
}

// Refresh drops the cached dependency scan so the next query re-reads
// the manifests.
func (s *Snapshot) Refresh() {
	s.mu.Lock()
	s.scanned = false
	s.mu.Unlock()
}

func (s *Snapshot) LastCommand() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.command
}

// SetLastCommand records the most recent user command string.
func (s *Snapshot) SetLastCommand(cmd string) {
	s.mu.Lock()
	s.command = cmd
	s.mu.Unlock()
}

func (s *Snapshot) PhaseApproved(name string) bool {
	return s.phases(name)
}

func scanManifests(root string) map[string]bool {
	deps := make(map[string]bool)
	scanPackageJSON(filepath.Join(root, "package.json"), deps)
	scanGoMod(filepath.Join(root, "go.mod"), deps)
	scanRequirements(filepath.Join(root, "requirements.txt"), deps)
	return deps
}

func scanPackageJSON(path string, deps map[string]bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return
	}
	for name := range manifest.Dependencies {
		deps[strings.ToLower(name)] = true
	}
	for name := range manifest.DevDependencies {
		deps[strings.ToLower(name)] = true
	}
}

func scanGoMod(path string, deps map[string]bool) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	inRequire := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "require ("):
			inRequire = true
		case inRequire && line == ")":
			inRequire = false
		case inRequire:
			if fields := strings.Fields(line); len(fields) >= 1 && fields[0] != "" {
				deps[strings.ToLower(fields[0])] = true
			}
		case strings.HasPrefix(line, "require "):
			if fields := strings.Fields(line); len(fields) >= 2 {
				deps[strings.ToLower(fields[1])] = true
			}
		}
	}
}

func scanRequirements(path string, deps map[string]bool) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name := line
		for _, sep := range []string{"==", ">=", "<=", "~=", ">", "<", "[", " "} {
			if idx := strings.Index(name, sep); idx >= 0 {
				name = name[:idx]
			}
		}
		if name != "" {
			deps[strings.ToLower(name)] = true
		}
	}
}
