package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeProvider is a canned-availability provider for selection tests.
type fakeProvider struct {
	id        string
	available bool
	reason    string
	probed    *int
}

func (f *fakeProvider) ID() string { return f.id }
func (f *fakeProvider) IsAvailable(context.Context) (bool, string) {
	if f.probed != nil {
		*f.probed++
	}
	return f.available, f.reason
}
func (f *fakeProvider) EngineInfo(context.Context) (Info, error) {
	return Info{Name: f.id, Version: "0.0-test"}, nil
}
func (f *fakeProvider) Up(context.Context, string, UpOptions) error     { return nil }
func (f *fakeProvider) Down(context.Context, string, DownOptions) error { return nil }
func (f *fakeProvider) Status(context.Context, string, StatusOptions) (StatusReport, error) {
	return StatusReport{Provider: f.id}, nil
}
func (f *fakeProvider) Logs(context.Context, string, LogsOptions) (<-chan string, error) {
	ch := make(chan string)
	close(ch)
	return ch, nil
}
func (f *fakeProvider) LivePorts(context.Context, string) ([]PortBinding, error) {
	return nil, nil
}

func registerFake(t *testing.T, id string, available bool, reason string) *fakeProvider {
	t.Helper()
	fake := &fakeProvider{id: id, available: available, reason: reason, probed: new(int)}
	Register(id, func() Provider { return fake })
	return fake
}

func TestSelectPrefersExplicitWhenAvailable(t *testing.T) {
	want := registerFake(t, "sel-explicit-ok", true, "")
	registerFake(t, "sel-other", true, "")

	sel := Select(context.Background(), "sel-explicit-ok", []string{"sel-other"})
	if !sel.Available || sel.Provider.ID() != "sel-explicit-ok" {
		t.Fatalf("explicit available engine must win, got %+v", sel)
	}
	if *want.probed != 1 {
		t.Fatalf("explicit engine should be probed once, got %d", *want.probed)
	}
}

func TestSelectFallsPastUnavailableExplicit(t *testing.T) {
	registerFake(t, "sel-explicit-down", false, "socket missing")
	registerFake(t, "sel-backup", true, "")

	sel := Select(context.Background(), "sel-explicit-down", []string{"sel-backup"})
	if !sel.Available || sel.Provider.ID() != "sel-backup" {
		t.Fatalf("selection should fall through to the order list, got %+v", sel)
	}
}

func TestSelectOrderDecides(t *testing.T) {
	registerFake(t, "sel-first-down", false, "not installed")
	registerFake(t, "sel-second-up", true, "")

	sel := Select(context.Background(), "", []string{"sel-first-down", "sel-second-up"})
	if !sel.Available || sel.Provider.ID() != "sel-second-up" {
		t.Fatalf("first available in order should win, got %+v", sel)
	}
}

func TestSelectFallsBackWhenNothingAvailable(t *testing.T) {
	registerFake(t, "sel-all-down-a", false, "daemon unreachable")
	registerFake(t, "sel-all-down-b", false, "not installed")

	sel := Select(context.Background(), "", []string{"sel-all-down-a", "sel-all-down-b"})
	if sel.Available {
		t.Fatalf("nothing is available, got %+v", sel)
	}
	// Non-executing flows still need a provider to describe.
	if sel.Provider == nil || sel.Provider.ID() != "sel-all-down-a" {
		t.Fatalf("default provider should back the selection, got %+v", sel.Provider)
	}
	if sel.Reason == "" {
		t.Fatalf("unavailability reasons should be aggregated")
	}
}

func TestDefaultOrderRegistersDockerFirst(t *testing.T) {
	order := DefaultOrder()
	docker, podman := -1, -1
	for i, id := range order {
		switch id {
		case "docker":
			docker = i
		case "podman":
			podman = i
		}
	}
	if docker == -1 || podman == -1 {
		t.Fatalf("docker and podman must self-register, order=%v", order)
	}
	if docker > podman {
		t.Fatalf("docker should be preferred over podman, order=%v", order)
	}
}

func TestParsePSOutputJSONLines(t *testing.T) {
	out := []byte(`{"Name":"shop-web-1","Service":"web","State":"running","Health":"healthy","Publishers":[{"TargetPort":80,"PublishedPort":8080,"Protocol":"tcp"}]}
{"Name":"shop-db-1","Service":"db","State":"running","Publishers":[{"TargetPort":5432,"PublishedPort":0}]}`)
	entries, err := parsePSOutput(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 2 || entries[0].Service != "web" || entries[0].Health != "healthy" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestParsePSOutputArray(t *testing.T) {
	out := []byte(`[{"Name":"shop-web-1","Service":"web","State":"running"}]`)
	entries, err := parsePSOutput(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 1 || entries[0].State != "running" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestParsePSOutputEmpty(t *testing.T) {
	entries, err := parsePSOutput([]byte("  \n"))
	if err != nil || entries != nil {
		t.Fatalf("empty output should yield nothing, got %v %v", entries, err)
	}
}

func TestBindingsFromEntries(t *testing.T) {
	entries, err := parsePSOutput([]byte(`{"Service":"web","State":"running","Publishers":[{"TargetPort":80,"PublishedPort":8080},{"TargetPort":9090,"PublishedPort":0}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	bindings := bindingsFromEntries(entries)
	if len(bindings) != 1 || bindings[0].Host != 8080 || bindings[0].Container != 80 || bindings[0].Protocol != "tcp" {
		t.Fatalf("unexpected bindings: %+v", bindings)
	}
}

func TestMissingBinaryIsUnavailableNotError(t *testing.T) {
	cli := &composeCLI{id: "test", bin: "definitely-not-a-real-binary"}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ok, reason := cli.IsAvailable(ctx)
	if ok || reason == "" {
		t.Fatalf("missing binary must be unavailable with a reason, got ok=%v reason=%q", ok, reason)
	}
}

func TestWorkingBinaryIsAvailableWithoutReason(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "fake-engine")
	script := "#!/bin/sh\necho '{\"Client\":{\"Version\":\"0.0-test\"}}'\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake engine: %v", err)
	}
	cli := &composeCLI{id: "test", bin: bin}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ok, reason := cli.IsAvailable(ctx)
	if !ok || reason != "" {
		t.Fatalf("working binary must be available with an empty reason, got ok=%v reason=%q", ok, reason)
	}
}
