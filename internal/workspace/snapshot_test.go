package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExists(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/components/App.tsx", "")
	writeFile(t, root, "docs/planning/roadmap.md", "")

	snap := New(root, nil)

	if !snap.Exists("*.tsx") {
		t.Error("expected bare *.tsx to match nested file")
	}
	if !snap.Exists("docs/planning/*.md") {
		t.Error("expected docs/planning/*.md to match")
	}
	if snap.Exists("*.vue") {
		t.Error("did not expect *.vue to match")
	}
	if snap.Exists("docs/adr/*.md") {
		t.Error("did not expect docs/adr/*.md to match")
	}
	if snap.Exists("") {
		t.Error("empty glob must not match")
	}
}

func TestHasDependencyPackageJSON(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{
		"dependencies": {"react": "^18.0.0"},
		"devDependencies": {"vitest": "^1.0.0"}
	}`)

	snap := New(root, nil)

	if !snap.HasDependency("react") {
		t.Error("expected react dependency")
	}
	if !snap.HasDependency("vitest") {
		t.Error("expected vitest dev dependency")
	}
	if snap.HasDependency("vue") {
		t.Error("did not expect vue dependency")
	}
}

func TestHasDependencyGoMod(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", `module example.com/app

go 1.24

require (
	github.com/google/uuid v1.6.0
	gopkg.in/yaml.v3 v3.0.1
)
`)

	snap := New(root, nil)

	if !snap.HasDependency("github.com/google/uuid") {
		t.Error("expected uuid dependency")
	}
	if snap.HasDependency("github.com/missing/pkg") {
		t.Error("did not expect missing dependency")
	}
}

func TestHasDependencyRequirements(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "requirements.txt", "fastapi==0.110.0\n# comment\npydantic>=2\n")

	snap := New(root, nil)

	if !snap.HasDependency("fastapi") {
		t.Error("expected fastapi dependency")
	}
	if !snap.HasDependency("pydantic") {
		t.Error("expected pydantic dependency")
	}
}

func TestRefresh(t *testing.T) {
	root := t.TempDir()
	snap := New(root, nil)

	if snap.HasDependency("react") {
		t.Error("did not expect react before manifest exists")
	}

	writeFile(t, root, "package.json", `{"dependencies": {"react": "^18.0.0"}}`)

	// Cached scan still misses it until refreshed
	if snap.HasDependency("react") {
		t.Error("expected cached scan to miss new manifest")
	}
	snap.Refresh()
	if !snap.HasDependency("react") {
		t.Error("expected react after refresh")
	}
}

func TestLastCommand(t *testing.T) {
	snap := New(t.TempDir(), nil)

	if snap.LastCommand() != "" {
		t.Error("expected empty initial command")
	}
	snap.SetLastCommand("/architecture checkout-flow")
	if snap.LastCommand() != "/architecture checkout-flow" {
		t.Errorf("unexpected command: %q", snap.LastCommand())
	}
}

func TestPhaseApproved(t *testing.T) {
	approved := map[string]bool{"product": true}
	snap := New(t.TempDir(), func(name string) bool { return approved[name] })

	if !snap.PhaseApproved("product") {
		t.Error("expected product phase approved")
	}
	if snap.PhaseApproved("architecture") {
		t.Error("did not expect architecture phase approved")
	}

	// Nil checker defaults to false
	if New(t.TempDir(), nil).PhaseApproved("product") {
		t.Error("expected nil checker to report false")
	}
}
