// store.go persists the launch manifest: the durable record of the app
// identity, chosen options, and per-service port allocations.

// Package manifest keeps a small JSON document under the project's
// .dockhand directory. Persistence is best-effort; the manifest is a
// convenience layer, never a correctness dependency. On content change the
// previous file is renamed to a timestamped backup instead of deleted.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// Dir is the project-local state directory.
	Dir = ".dockhand"
	// FileName is the manifest file inside Dir.
	FileName = "manifest.json"
	// ArtifactName is the rendered compose artifact inside Dir; the ignore
	// file whitelists it so it can be versioned.
	ArtifactName = "compose.yaml"

	// SchemaVersion is written into every manifest.
	SchemaVersion = 1
)

// App identifies the project the manifest belongs to.
type App struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Code               string `json:"code,omitempty"`
	DefaultPublicPort  int    `json:"defaultPublicPort,omitempty"`
	AssignedPublicPort int    `json:"assignedPublicPort,omitempty"`
}

// Options records the choices made on the last run.
type Options struct {
	ExposeInternals bool   `json:"exposeInternals"`
	LastEngine      string `json:"lastEngine,omitempty"`
	LastProfile     string `json:"lastProfile,omitempty"`
}

// Allocation is the per-service port record.
type Allocation struct {
	AssignedPort int `json:"assignedPort"`
}

// Model is the persisted manifest document.
type Model struct {
	SchemaVersion int                   `json:"schemaVersion"`
	App           App                   `json:"app"`
	Options       Options               `json:"options"`
	Services      map[string]Allocation `json:"services,omitempty"`
}

// Path returns the manifest location under root.
func Path(root string) string {
	return filepath.Join(root, Dir, FileName)
}

// ArtifactPath returns the default rendered-artifact location under root.
func ArtifactPath(root string) string {
	return filepath.Join(root, Dir, ArtifactName)
}

// Load reads the manifest under root. ok is false when the file is absent
// or unreadable; that is not an error condition for callers.
func Load(root string) (*Model, bool) {
	content, err := os.ReadFile(Path(root))
	if err != nil {
		return nil, false
	}
	var model Model
	if err := json.Unmarshal(content, &model); err != nil {
		return nil, false
	}
	return &model, true
}

// Save writes the manifest under root. When an existing manifest differs
// from the new content, the old file is first renamed to a
// `manifest.json.old.<UTC timestamp>` backup. Saving identical content is a
// no-op and creates no backup.
func Save(root string, model *Model) error {
	dir := filepath.Join(root, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	ensureIgnoreFile(dir)

	model.SchemaVersion = SchemaVersion
	content, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	content = append(content, '\n')

	path := Path(root)
	if existing, err := os.ReadFile(path); err == nil {
		if bytes.Equal(existing, content) {
			return nil
		}
		backup := fmt.Sprintf("%s.old.%s", path, time.Now().UTC().Format("20060102T150405Z"))
		if err := os.Rename(path, backup); err != nil {
			return fmt.Errorf("back up manifest: %w", err)
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ensureIgnoreFile drops a .gitignore into the state directory so transient
// files stay out of version control while the rendered artifact is allowed
// through. Best-effort; an existing file is left alone.
func ensureIgnoreFile(dir string) {
	path := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		return
	}
	content := "*\n!" + ArtifactName + "\n!.gitignore\n"
	_ = os.WriteFile(path, []byte(content), 0o644)
}
