package cmd

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCheckRejectsConflictingFlags(t *testing.T) {
	cases := [][]string{
		{"check", "--progress-bar", "--no-progress-bar"},
		{"check", "--ignore-auth-failures", "--no-ignore-auth-failures"},
	}
	for _, args := range cases {
		_, err := runRoot(t, args...)
		if err == nil || !strings.Contains(err.Error(), "cannot use both") {
			t.Errorf("args %v: expected conflict error, got %v", args, err)
		}
	}
}

func TestCheckRejectsBadMode(t *testing.T) {
	_, err := runRoot(t, "check", "--mode", "sideways")
	if err == nil || !strings.Contains(err.Error(), "unknown verification mode") {
		t.Errorf("expected mode error, got %v", err)
	}
}

func TestCheckRejectsBadColor(t *testing.T) {
	_, err := runRoot(t, "check", "--color", "sometimes")
	if err == nil || !strings.Contains(err.Error(), "invalid --color") {
		t.Errorf("expected color error, got %v", err)
	}
}

func TestCheckRejectsBadDuration(t *testing.T) {
	_, err := runRoot(t, "check", "--external-timeout", "fast")
	if err == nil || !strings.Contains(err.Error(), "invalid --external-timeout") {
		t.Errorf("expected duration error, got %v", err)
	}
}

// initRepo creates a git repository with the given tracked files.
func initRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	git := exec.Command("git", "init", "-q")
	git.Dir = root
	if out, err := git.CombinedOutput(); err != nil {
		t.Fatalf("git init: %v: %s", err, out)
	}
	git = exec.Command("git", "add", "-A")
	git.Dir = root
	if out, err := git.CombinedOutput(); err != nil {
		t.Fatalf("git add: %v: %s", err, out)
	}
	return root
}

func TestCheckCleanRepository(t *testing.T) {
	root := initRepo(t, map[string]string{
		"README.md":     "# Intro\n\nSee [usage](docs/usage.md#setup) and [self](#intro).\n",
		"docs/usage.md": "# Usage\n\n## Setup\n",
	})

	out, err := runRoot(t, "check",
		"--root", root, "--mode", "local",
		"--no-progress-bar", "--color", "never")
	if err != nil {
		t.Fatalf("expected clean run, got %v\noutput:\n%s", err, out)
	}
	if !strings.Contains(out, "All references are valid.") {
		t.Errorf("expected success line, got:\n%s", out)
	}
}

func TestCheckBrokenReference(t *testing.T) {
	root := initRepo(t, map[string]string{
		"README.md": "[gone](./missing.md)\n",
	})

	out, err := runRoot(t, "check",
		"--root", root, "--mode", "local",
		"--no-progress-bar", "--color", "never")
	if !errors.Is(err, ErrChecksFailed) {
		t.Fatalf("expected ErrChecksFailed, got %v", err)
	}
	if !strings.Contains(out, "=== Invalid references found ===") {
		t.Errorf("expected invalid references block, got:\n%s", out)
	}
	if !strings.Contains(out, "missing.md") {
		t.Errorf("expected the broken target in output, got:\n%s", out)
	}
}

func TestCheckScanErrorsFailTheRun(t *testing.T) {
	root := initRepo(t, map[string]string{
		"README.md": "<!-- xrefcheck: ignore link -->\n\nno link follows\n",
	})

	out, err := runRoot(t, "check",
		"--root", root, "--mode", "local",
		"--no-progress-bar", "--color", "never")
	if !errors.Is(err, ErrChecksFailed) {
		t.Fatalf("expected ErrChecksFailed, got %v", err)
	}
	if !strings.Contains(out, "=== Scan errors found ===") {
		t.Errorf("expected scan errors block, got:\n%s", out)
	}
}

func TestCheckIgnoredFlagExcludesFile(t *testing.T) {
	root := initRepo(t, map[string]string{
		"README.md":  "# Hi\n",
		"borked.md":  "[gone](./missing.md)\n",
		"borked2.md": "[gone](./missing.md)\n",
	})

	out, err := runRoot(t, "check",
		"--root", root, "--mode", "local",
		"--ignored", "borked.md", "--ignored", "borked2.md",
		"--no-progress-bar", "--color", "never")
	if err != nil {
		t.Fatalf("expected clean run with exclusions, got %v\noutput:\n%s", err, out)
	}
	if !strings.Contains(out, "All references are valid.") {
		t.Errorf("expected success line, got:\n%s", out)
	}
}

func TestCheckVerboseDumpsRepoInfo(t *testing.T) {
	root := initRepo(t, map[string]string{
		"README.md": "# Intro\n\n[self](#intro)\n",
	})

	out, err := runRoot(t, "check",
		"--root", root, "--mode", "local", "--verbose",
		"--no-progress-bar", "--color", "never")
	if err != nil {
		t.Fatalf("expected clean run, got %v\noutput:\n%s", err, out)
	}
	if !strings.Contains(out, "=== Repository info ===") {
		t.Errorf("expected repository dump, got:\n%s", out)
	}
	if !strings.Contains(out, "intro (header level 1)") {
		t.Errorf("expected anchor listing in dump, got:\n%s", out)
	}
}
