package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/andreasabel/xrefcheck/internal/anchor"
	"github.com/andreasabel/xrefcheck/internal/pathutil"
)

// Config represents xrefcheck configuration options.
type Config struct {
	// Exclusions limits which files and references get checked.
	Exclusions Exclusions `yaml:"exclusions"`

	// Networking tunes external reference probing.
	Networking Networking `yaml:"networking"`

	// Scanners configures the per-format document scanners.
	Scanners Scanners `yaml:"scanners"`
}

// Exclusions carve files and references out of the check. All glob patterns
// match root-relative, slash-separated paths.
type Exclusions struct {
	// Ignore lists files excluded from scanning entirely: their references
	// are not checked and their anchors do not exist for others.
	Ignore []string `yaml:"ignore"`

	// IgnoreRefsFrom lists files whose outgoing references are not
	// verified. The files are still scanned, so links into them resolve.
	IgnoreRefsFrom []string `yaml:"ignoreRefsFrom"`

	// IgnoreLocalRefsTo lists local targets that are accepted without
	// checking, anchors included.
	IgnoreLocalRefsTo []string `yaml:"ignoreLocalRefsTo"`

	// IgnoreExternalRefsTo lists POSIX extended regexes; external links
	// fully matching one of them are accepted without probing.
	IgnoreExternalRefsTo []string `yaml:"ignoreExternalRefsTo"`

	// VirtualFiles lists paths that exist only after some build step;
	// references to them are accepted although the scan cannot see them.
	VirtualFiles []string `yaml:"virtualFiles"`
}

// Networking tunes the external probe loop.
type Networking struct {
	// ExternalRefCheckTimeout caps each probe attempt.
	ExternalRefCheckTimeout Duration `yaml:"externalRefCheckTimeout"`

	// IgnoreAuthFailures accepts links answering 401 or 403: the resource
	// exists, it is just not public.
	IgnoreAuthFailures bool `yaml:"ignoreAuthFailures"`

	// DefaultRetryAfter is the pause before retrying a 429 response that
	// carries no Retry-After header.
	DefaultRetryAfter Duration `yaml:"defaultRetryAfter"`

	// MaxRetries bounds how often a rate-limited request is retried.
	MaxRetries int `yaml:"maxRetries"`
}

// Scanners configures the per-format document scanners.
type Scanners struct {
	// AnchorSimilarityThreshold is the minimum closeness, from 0 to 1, an
	// existing anchor needs in order to be offered as a suggestion.
	AnchorSimilarityThreshold float64 `yaml:"anchorSimilarityThreshold"`

	// Markdown configures the Markdown scanner.
	Markdown MarkdownConfig `yaml:"markdown"`
}

// MarkdownConfig selects the Markdown dialect.
type MarkdownConfig struct {
	// Flavor selects the anchor dialect: GitHub or GitLab.
	Flavor anchor.Flavor `yaml:"flavor"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Networking: Networking{
			ExternalRefCheckTimeout: Duration(10 * time.Second),
			IgnoreAuthFailures:      false,
			DefaultRetryAfter:       Duration(30 * time.Second),
			MaxRetries:              3,
		},
		Scanners: Scanners{
			AnchorSimilarityThreshold: 0.5,
			Markdown: MarkdownConfig{
				Flavor: anchor.GitHub,
			},
		},
	}
}

// configFileNames are tried in order when --config is not given.
var configFileNames = []string{
	".xrefcheck.yaml",
	"xrefcheck.yaml",
	".xrefcheck.yml",
	"xrefcheck.yml",
}

// FindConfigFile looks for a configuration file under root following the
// default name order. The second result is false when none exists.
func FindConfigFile(root string) (string, bool) {
	for _, name := range configFileNames {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// LoadConfig loads configuration from the specified file path. Options not
// present in the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// LoadConfigFromDir finds and loads the configuration under root. If no
// config file exists there, returns the default configuration without error.
func LoadConfigFromDir(root string) (*Config, error) {
	path, ok := FindConfigFile(root)
	if !ok {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// MergeWithFlags merges CLI flags into the configuration. Non-nil flag
// values override configuration values, so flags take precedence over the
// config file.
func (c *Config) MergeWithFlags(timeout *time.Duration, ignoreAuthFailures *bool, defaultRetryAfter *time.Duration, maxRetries *int, flavor *anchor.Flavor) {
	if timeout != nil {
		c.Networking.ExternalRefCheckTimeout = Duration(*timeout)
	}
	if ignoreAuthFailures != nil {
		c.Networking.IgnoreAuthFailures = *ignoreAuthFailures
	}
	if defaultRetryAfter != nil {
		c.Networking.DefaultRetryAfter = Duration(*defaultRetryAfter)
	}
	if maxRetries != nil {
		c.Networking.MaxRetries = *maxRetries
	}
	if flavor != nil {
		c.Scanners.Markdown.Flavor = *flavor
	}
}

// AppendExclusions widens the configured exclusions with patterns given on
// the command line. Flags append rather than replace, so a flag can never
// silently discard patterns from the config file.
func (c *Config) AppendExclusions(ignore, ignoreRefsFrom, ignoreLocalRefsTo, ignoreExternalRefsTo []string) {
	c.Exclusions.Ignore = append(c.Exclusions.Ignore, ignore...)
	c.Exclusions.IgnoreRefsFrom = append(c.Exclusions.IgnoreRefsFrom, ignoreRefsFrom...)
	c.Exclusions.IgnoreLocalRefsTo = append(c.Exclusions.IgnoreLocalRefsTo, ignoreLocalRefsTo...)
	c.Exclusions.IgnoreExternalRefsTo = append(c.Exclusions.IgnoreExternalRefsTo, ignoreExternalRefsTo...)
}

// Validate validates the configuration values.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	globLists := []struct {
		name     string
		patterns []string
	}{
		{"exclusions.ignore", c.Exclusions.Ignore},
		{"exclusions.ignoreRefsFrom", c.Exclusions.IgnoreRefsFrom},
		{"exclusions.ignoreLocalRefsTo", c.Exclusions.IgnoreLocalRefsTo},
		{"exclusions.virtualFiles", c.Exclusions.VirtualFiles},
	}
	for _, list := range globLists {
		if err := pathutil.ValidateGlobs(list.patterns); err != nil {
			return fmt.Errorf("%s: %w", list.name, err)
		}
	}

	if _, err := pathutil.CompileExtendedRegexes(c.Exclusions.IgnoreExternalRefsTo); err != nil {
		return fmt.Errorf("exclusions.ignoreExternalRefsTo: %w", err)
	}

	if c.Networking.ExternalRefCheckTimeout <= 0 {
		return fmt.Errorf("networking.externalRefCheckTimeout must be positive, got %s", c.Networking.ExternalRefCheckTimeout)
	}
	if c.Networking.DefaultRetryAfter < 0 {
		return fmt.Errorf("networking.defaultRetryAfter must be >= 0, got %s", c.Networking.DefaultRetryAfter)
	}
	if c.Networking.MaxRetries < 0 {
		return fmt.Errorf("networking.maxRetries must be >= 0, got %d", c.Networking.MaxRetries)
	}

	if t := c.Scanners.AnchorSimilarityThreshold; t < 0 || t > 1 {
		return fmt.Errorf("scanners.anchorSimilarityThreshold must be between 0 and 1, got %g", t)
	}
	if _, err := anchor.ParseFlavor(string(c.Scanners.Markdown.Flavor)); err != nil {
		return fmt.Errorf("scanners.markdown.flavor: %w", err)
	}

	return nil
}

// Dump renders the configuration as YAML, the way dump-config prints it.
func (c *Config) Dump() ([]byte, error) {
	return yaml.Marshal(c)
}
