package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestStatusJSONCarriesEngineError(t *testing.T) {
	spy, id := registerSpy(t, nil)
	spy.statusErr = errors.New("engine query failed")
	opts := &globalOptions{root: t.TempDir(), engineID: id, profileRaw: "local"}

	cmd := newStatusCommand(opts)
	cmd.SetArgs([]string{"--json"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(new(bytes.Buffer))
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("status: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if _, ok := payload["status"]; ok {
		t.Fatalf("failed status query must not masquerade as an empty report: %v", payload)
	}
	msg, ok := payload["statusError"].(string)
	if !ok || msg == "" {
		t.Fatalf("expected statusError field, got %v", payload)
	}
	if _, ok := payload["livePorts"]; !ok {
		t.Fatalf("live ports succeeded and should still be present: %v", payload)
	}
}
