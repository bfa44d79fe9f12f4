package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalizeJoinIdempotent(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "docs", "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(dir, "docs", "sub", "page.md")
	if err := os.WriteFile(file, []byte("# hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	root, err := Canonicalize(dir)
	if err != nil {
		t.Fatalf("Canonicalize(%q): %v", dir, err)
	}

	joined := Join(root, "docs/sub/page.md")
	again, err := Canonicalize(joined)
	if err != nil {
		t.Fatalf("Canonicalize(%q): %v", joined, err)
	}
	if again != joined {
		t.Errorf("canonicalizing a joined path changed it: %q -> %q", joined, again)
	}
}

func TestCanonicalizeMissingPath(t *testing.T) {
	_, err := Canonicalize(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected an error for a missing path")
	}
}

func TestJoinCleans(t *testing.T) {
	got := Join("/repo", "docs/../readme.md")
	want := filepath.Clean("/repo/readme.md")
	if got != want {
		t.Errorf("Join = %q, want %q", got, want)
	}
}

func TestRelativeTo(t *testing.T) {
	tests := []struct {
		name    string
		root    string
		target  string
		wantRel string
		wantOK  bool
	}{
		{"direct child", "/repo", "/repo/a.md", "a.md", true},
		{"nested child", "/repo", "/repo/docs/a.md", "docs/a.md", true},
		{"root itself", "/repo", "/repo", ".", true},
		{"outside root", "/repo", "/other/a.md", "", false},
		{"parent escape", "/repo", "/repo/../a.md", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, ok := RelativeTo(filepath.FromSlash(tt.root), filepath.FromSlash(tt.target))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && rel != tt.wantRel {
				t.Errorf("rel = %q, want %q", rel, tt.wantRel)
			}
		})
	}
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		expected bool
	}{
		{"double star crosses directories", []string{"**/*.png"}, "img/deep/x.png", true},
		{"directory subtree", []string{"vendor/**"}, "vendor/lib/readme.md", true},
		{"plain name", []string{"changelog.md"}, "changelog.md", true},
		{"no match", []string{"docs/*.md"}, "src/main.go", false},
		{"single star stays within a directory", []string{"*.png"}, "img/x.png", false},
		{"empty pattern list", nil, "anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesAny(tt.patterns, tt.path); got != tt.expected {
				t.Errorf("MatchesAny(%v, %q) = %v, want %v", tt.patterns, tt.path, got, tt.expected)
			}
		})
	}
}

func TestValidateGlobs(t *testing.T) {
	if err := ValidateGlobs([]string{"**/*.md", "docs/**"}); err != nil {
		t.Errorf("valid globs rejected: %v", err)
	}
	if err := ValidateGlobs([]string{"[unclosed"}); err == nil {
		t.Error("invalid glob accepted")
	}
}

func TestCompileExtendedRegexes(t *testing.T) {
	regexes, err := CompileExtendedRegexes([]string{
		"https://example\\.com/.*",
		"https://exact\\.test",
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if !MatchesAnyRegexp(regexes, "https://example.com/page") {
		t.Error("wildcard match rejected")
	}
	if !MatchesAnyRegexp(regexes, "https://exact.test") {
		t.Error("exact match rejected")
	}
	// Anchoring: matching a prefix of the link is not enough.
	if MatchesAnyRegexp(regexes, "https://exact.test/sub") {
		t.Error("prefix match accepted")
	}
	if MatchesAnyRegexp(nil, "https://example.com") {
		t.Error("empty pattern list matched")
	}
}

func TestCompileExtendedRegexesRejectsPerlSyntax(t *testing.T) {
	if _, err := CompileExtendedRegexes([]string{`(?i)example`}); err == nil {
		t.Error("perl-only syntax accepted by the POSIX compiler")
	}
}
