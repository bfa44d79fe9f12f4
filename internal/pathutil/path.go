// Package pathutil normalizes repository paths and matches them against
// user-supplied glob and regexp patterns.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Canonicalize turns path into the canonical absolute form used as a map key
// across the scan: absolute, symlink-resolved, cleaned. The path must exist.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path of %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path does not exist: %s", abs)
		}
		return "", fmt.Errorf("resolving symlinks of %s: %w", abs, err)
	}
	return filepath.Clean(resolved), nil
}

// Join attaches a root-relative path to an already canonical root. The
// result is canonical as long as the relative part does not cross symlinks,
// which holds for paths reported by git within the root.
func Join(root, rel string) string {
	return filepath.Clean(filepath.Join(root, rel))
}

// RelativeTo rewrites target as a slash-separated path relative to root.
// The second result is false when target does not live under root.
func RelativeTo(root, target string) (string, bool) {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
