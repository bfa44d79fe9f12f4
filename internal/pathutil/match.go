package pathutil

import (
	"fmt"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
)

// ValidateGlobs rejects patterns doublestar cannot parse, so a bad glob
// fails at configuration time instead of silently matching nothing.
func ValidateGlobs(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

// MatchesAny reports whether the slash-separated root-relative path matches
// at least one of the glob patterns.
func MatchesAny(patterns []string, relSlash string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, relSlash); err == nil && ok {
			return true
		}
	}
	return false
}

// CompileExtendedRegexes compiles POSIX extended regular expressions,
// anchoring each so it must match a whole link rather than a substring.
func CompileExtendedRegexes(patterns []string) ([]*regexp.Regexp, error) {
	regexes := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.CompilePOSIX("^(" + p + ")$")
		if err != nil {
			return nil, fmt.Errorf("invalid regexp %q: %w", p, err)
		}
		regexes = append(regexes, re)
	}
	return regexes, nil
}

// MatchesAnyRegexp reports whether s matches at least one compiled pattern.
func MatchesAnyRegexp(regexes []*regexp.Regexp, s string) bool {
	for _, re := range regexes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
