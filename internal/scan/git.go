// Package scan enumerates a repository's documentation files and parses
// them into the repository model the verifier works on.
package scan

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// FileLister enumerates repository files, root-relative with forward
// slashes. The git CLI backs the real implementation; tests substitute
// their own.
type FileLister interface {
	// Tracked lists the files git tracks under the root.
	Tracked() ([]string, error)
	// Untracked lists working-tree files git does not track, minus
	// anything matched by the ignore rules.
	Untracked() ([]string, error)
}

// Git lists repository files by shelling out to the git CLI, which is
// always present where the tool runs: inside a checkout.
type Git struct {
	root string
}

// NewGit creates a lister for the repository rooted at root.
func NewGit(root string) *Git {
	return &Git{root: root}
}

// Tracked implements FileLister.
func (g *Git) Tracked() ([]string, error) {
	return g.lsFiles()
}

// Untracked implements FileLister.
func (g *Git) Untracked() ([]string, error) {
	return g.lsFiles("--others", "--exclude-standard")
}

func (g *Git) lsFiles(extra ...string) ([]string, error) {
	args := append([]string{"ls-files"}, extra...)
	args = append(args, "--", ".")

	cmd := exec.Command("git", args...)
	cmd.Dir = g.root

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return splitGitOutput(stdout.String()), nil
}

// splitGitOutput splits ls-files output into clean relative paths: one per
// line, carriage returns trimmed, empty lines dropped.
func splitGitOutput(out string) []string {
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	return paths
}
