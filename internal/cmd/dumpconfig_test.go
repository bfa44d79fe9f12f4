package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDumpConfigToStdout(t *testing.T) {
	out, err := runRoot(t, "dump-config")
	if err != nil {
		t.Fatalf("dump-config failed: %v", err)
	}

	for _, want := range []string{
		"externalRefCheckTimeout: 10s",
		"defaultRetryAfter: 30s",
		"maxRetries: 3",
		"anchorSimilarityThreshold: 0.5",
		"flavor: GitHub",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestDumpConfigToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".xrefcheck.yaml")

	out, err := runRoot(t, "dump-config", "--output", path)
	if err != nil {
		t.Fatalf("dump-config failed: %v", err)
	}
	if !strings.Contains(out, "Configuration written to "+path) {
		t.Errorf("expected confirmation message, got:\n%s", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	stdout, err := runRoot(t, "dump-config")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != stdout {
		t.Errorf("file content differs from stdout dump:\n%s", data)
	}
}

func TestDumpConfigRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xrefcheck.yaml")
	if err := os.WriteFile(path, []byte("keep me\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runRoot(t, "dump-config", "--output", path)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "keep me\n" {
		t.Errorf("file was modified: %q", data)
	}

	if _, err := runRoot(t, "dump-config", "--output", path, "--force"); err != nil {
		t.Fatalf("--force failed: %v", err)
	}
	data, _ = os.ReadFile(path)
	if !strings.Contains(string(data), "maxRetries: 3") {
		t.Errorf("file not overwritten: %q", data)
	}
}
