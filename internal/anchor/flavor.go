// Package anchor computes and compares document anchors: heading slugs,
// duplicate-name numbering and the similarity scoring behind "did you mean"
// suggestions.
package anchor

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Flavor selects the slug dialect of the hosting platform.
type Flavor string

const (
	GitHub Flavor = "GitHub"
	GitLab Flavor = "GitLab"
)

// SlugFunc turns heading text into an anchor name.
type SlugFunc func(string) string

// flavors registers the slug function of each known dialect. The two
// initial dialects share one algorithm; the registry is the extension point
// for platforms that diverge.
var flavors = map[Flavor]SlugFunc{
	GitHub: githubSlug,
	GitLab: githubSlug,
}

// ParseFlavor recognizes a flavor name case-insensitively.
func ParseFlavor(s string) (Flavor, error) {
	switch strings.ToLower(s) {
	case "github":
		return GitHub, nil
	case "gitlab":
		return GitLab, nil
	default:
		return "", fmt.Errorf("unknown markdown flavor %q, expected GitHub or GitLab", s)
	}
}

// Slugger returns the slug function registered for the flavor.
func (f Flavor) Slugger() SlugFunc {
	if fn, ok := flavors[f]; ok {
		return fn
	}
	return githubSlug
}

// BiblioAnchors reports whether the flavor turns link reference definitions
// ([label]: url) into anchors, the way GitHub renders them.
func (f Flavor) BiblioAnchors() bool {
	return f == GitHub
}

func (f *Flavor) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseFlavor(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (f Flavor) MarshalYAML() (interface{}, error) {
	return string(f), nil
}
