package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleModel() *Model {
	return &Model{
		App:     App{ID: "shop", Name: "shop", Code: "shop", DefaultPublicPort: 8080, AssignedPublicPort: 8081},
		Options: Options{LastEngine: "docker", LastProfile: "local"},
		Services: map[string]Allocation{
			"web": {AssignedPort: 8081},
			"db":  {AssignedPort: 5433},
		},
	}
}

func backupFiles(t *testing.T, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(root, Dir))
	if err != nil {
		t.Fatalf("read state dir: %v", err)
	}
	var backups []string
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".old.") {
			backups = append(backups, entry.Name())
		}
	}
	return backups
}

func TestLoadAbsent(t *testing.T) {
	if model, ok := Load(t.TempDir()); ok || model != nil {
		t.Fatalf("expected absent manifest, got %+v", model)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	if err := Save(root, sampleModel()); err != nil {
		t.Fatalf("save: %v", err)
	}
	model, ok := Load(root)
	if !ok {
		t.Fatalf("expected manifest to load")
	}
	if model.SchemaVersion != SchemaVersion {
		t.Fatalf("schema version not stamped: %d", model.SchemaVersion)
	}
	if model.App.Name != "shop" || model.Services["db"].AssignedPort != 5433 {
		t.Fatalf("round-trip mismatch: %+v", model)
	}
}

func TestSaveIdenticalContentCreatesNoBackup(t *testing.T) {
	root := t.TempDir()
	if err := Save(root, sampleModel()); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := Save(root, sampleModel()); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if backups := backupFiles(t, root); len(backups) != 0 {
		t.Fatalf("idempotent re-save must not back up, got %v", backups)
	}
}

func TestSaveChangedContentBacksUpOnce(t *testing.T) {
	root := t.TempDir()
	if err := Save(root, sampleModel()); err != nil {
		t.Fatalf("first save: %v", err)
	}
	changed := sampleModel()
	changed.Services["web"] = Allocation{AssignedPort: 8082}
	if err := Save(root, changed); err != nil {
		t.Fatalf("changed save: %v", err)
	}
	backups := backupFiles(t, root)
	if len(backups) != 1 {
		t.Fatalf("expected exactly one backup, got %v", backups)
	}
	if !strings.HasPrefix(backups[0], FileName+".old.") {
		t.Fatalf("backup name mismatch: %s", backups[0])
	}
	// The live file must hold the new content.
	model, ok := Load(root)
	if !ok || model.Services["web"].AssignedPort != 8082 {
		t.Fatalf("live manifest not updated: %+v", model)
	}
}

func TestSaveEnsuresIgnoreFile(t *testing.T) {
	root := t.TempDir()
	if err := Save(root, sampleModel()); err != nil {
		t.Fatalf("save: %v", err)
	}
	content, err := os.ReadFile(filepath.Join(root, Dir, ".gitignore"))
	if err != nil {
		t.Fatalf("ignore file missing: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "*") || !strings.Contains(text, "!"+ArtifactName) {
		t.Fatalf("ignore file must exclude everything but the artifact, got %q", text)
	}

	// An existing ignore file is left alone.
	custom := "# custom\n"
	if err := os.WriteFile(filepath.Join(root, Dir, ".gitignore"), []byte(custom), 0o644); err != nil {
		t.Fatalf("write custom ignore: %v", err)
	}
	if err := Save(root, sampleModel()); err != nil {
		t.Fatalf("re-save: %v", err)
	}
	content, _ = os.ReadFile(filepath.Join(root, Dir, ".gitignore"))
	if string(content) != custom {
		t.Fatalf("existing ignore file overwritten: %q", string(content))
	}
}
