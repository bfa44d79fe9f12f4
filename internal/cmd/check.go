package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/andreasabel/xrefcheck/internal/anchor"
	"github.com/andreasabel/xrefcheck/internal/config"
	"github.com/andreasabel/xrefcheck/internal/display"
	"github.com/andreasabel/xrefcheck/internal/logger"
	"github.com/andreasabel/xrefcheck/internal/parser"
	"github.com/andreasabel/xrefcheck/internal/pathutil"
	"github.com/andreasabel/xrefcheck/internal/progress"
	"github.com/andreasabel/xrefcheck/internal/scan"
	"github.com/andreasabel/xrefcheck/internal/verify"
)

// ErrChecksFailed marks runs that found broken references or scan errors.
// main exits 1 for it, against 2 for configuration and environment errors.
var ErrChecksFailed = errors.New("checks failed")

// NewCheckCommand creates the check subcommand, the default action of the
// root command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Scan the repository and verify all references",
		Long: `Scan the repository for documentation files and verify every reference
they contain.

The scan covers files tracked by git (plus untracked ones with
--include-untracked). Local references are resolved against the scanned
repository model; external URLs are probed concurrently over HTTP with
per-domain rate-limit handling.

Configuration is loaded from .xrefcheck.yaml under the root if present.
CLI flags override configuration file settings; exclusion flags append.

Examples:
  # Check the current repository
  xrefcheck check

  # Skip the network, useful offline
  xrefcheck check --mode local

  # Ignore generated documentation
  xrefcheck check --ignored 'docs/generated/**'

  # CI-friendly output
  xrefcheck check --no-progress-bar --color never`,
		Args:         cobra.NoArgs,
		RunE:         runCheck,
		SilenceUsage: true,
	}
	addCheckFlags(cmd)
	return cmd
}

// addCheckFlags registers the check flag set. The root command carries the
// same set so that bare "xrefcheck" runs a check.
func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to configuration file (default: .xrefcheck.yaml under the root)")
	cmd.Flags().StringP("root", "r", ".", "Repository root to check")
	cmd.Flags().String("mode", "full", "Which references to verify: full, local or external")
	cmd.Flags().BoolP("verbose", "v", false, "Dump the scanned repository model before verification")
	cmd.Flags().Bool("progress-bar", false, "Force the progress bar on")
	cmd.Flags().Bool("no-progress-bar", false, "Force the progress bar off")
	cmd.Flags().String("color", "auto", "Color output: always, never or auto")
	cmd.Flags().Bool("include-untracked", false, "Scan untracked files and accept references into them")
	cmd.Flags().StringArray("ignored", nil, "Glob of files to exclude from scanning (repeatable, appends to config)")
	cmd.Flags().StringArray("ignore-refs-from", nil, "Glob of files whose references are not verified (repeatable)")
	cmd.Flags().StringArray("ignore-local-refs-to", nil, "Glob of local targets accepted without checking (repeatable)")
	cmd.Flags().StringArray("ignore-external-refs-to", nil, "POSIX regex of external links accepted without probing (repeatable)")
	cmd.Flags().String("external-timeout", "", "Per-attempt timeout for external probes (e.g. 10s)")
	cmd.Flags().Bool("ignore-auth-failures", false, "Accept external links answering 401 or 403")
	cmd.Flags().Bool("no-ignore-auth-failures", false, "Report external links answering 401 or 403 (overrides config)")
	cmd.Flags().String("default-retry-after", "", "Pause before retrying a 429 without Retry-After (e.g. 30s)")
	cmd.Flags().Int("max-retries", 0, "How many times a rate-limited request is retried")
	cmd.Flags().String("flavor", "", "Markdown anchor flavor: GitHub or GitLab")
}

// runCheck implements the check command logic.
func runCheck(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	// Validate conflicting flags
	if flags.Changed("progress-bar") && flags.Changed("no-progress-bar") {
		return fmt.Errorf("cannot use both --progress-bar and --no-progress-bar")
	}
	if flags.Changed("ignore-auth-failures") && flags.Changed("no-ignore-auth-failures") {
		return fmt.Errorf("cannot use both --ignore-auth-failures and --no-ignore-auth-failures")
	}

	colorMode, _ := flags.GetString("color")
	switch strings.ToLower(colorMode) {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "auto", "":
		// Keep the library's TTY and NO_COLOR detection.
	default:
		return fmt.Errorf("invalid --color %q, expected always, never or auto", colorMode)
	}

	modeStr, _ := flags.GetString("mode")
	mode, err := verify.ParseMode(modeStr)
	if err != nil {
		return err
	}

	rootFlag, _ := flags.GetString("root")
	root, err := pathutil.Canonicalize(rootFlag)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	// Load configuration from file
	configPath, _ := flags.GetString("config")
	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(root)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	// Build flag pointers for merge (only values the user set)
	var timeoutPtr, retryAfterPtr *time.Duration
	if flags.Changed("external-timeout") {
		s, _ := flags.GetString("external-timeout")
		d, err := config.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid --external-timeout: %w", err)
		}
		std := d.Std()
		timeoutPtr = &std
	}
	if flags.Changed("default-retry-after") {
		s, _ := flags.GetString("default-retry-after")
		d, err := config.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid --default-retry-after: %w", err)
		}
		std := d.Std()
		retryAfterPtr = &std
	}

	var authPtr *bool
	if flags.Changed("ignore-auth-failures") {
		v, _ := flags.GetBool("ignore-auth-failures")
		authPtr = &v
	} else if flags.Changed("no-ignore-auth-failures") {
		v, _ := flags.GetBool("no-ignore-auth-failures")
		v = !v
		authPtr = &v
	}

	var retriesPtr *int
	if flags.Changed("max-retries") {
		n, _ := flags.GetInt("max-retries")
		retriesPtr = &n
	}

	var flavorPtr *anchor.Flavor
	if flags.Changed("flavor") {
		s, _ := flags.GetString("flavor")
		f, err := anchor.ParseFlavor(s)
		if err != nil {
			return err
		}
		flavorPtr = &f
	}

	// Merge CLI flags with config (flags take precedence)
	cfg.MergeWithFlags(timeoutPtr, authPtr, retryAfterPtr, retriesPtr, flavorPtr)

	ignored, _ := flags.GetStringArray("ignored")
	ignoreRefsFrom, _ := flags.GetStringArray("ignore-refs-from")
	ignoreLocalRefsTo, _ := flags.GetStringArray("ignore-local-refs-to")
	ignoreExternalRefsTo, _ := flags.GetStringArray("ignore-external-refs-to")
	cfg.AppendExclusions(ignored, ignoreRefsFrom, ignoreLocalRefsTo, ignoreExternalRefsTo)

	// Validate merged configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Determine log level: verbose flag raises it
	verbose, _ := flags.GetBool("verbose")
	logLevel := "info"
	if verbose {
		logLevel = "debug"
	}
	log := logger.NewConsoleLogger(os.Stderr, logLevel)

	includeUntracked, _ := flags.GetBool("include-untracked")
	scanMode := scan.OnlyTracked
	if includeUntracked {
		scanMode = scan.IncludeUntracked
	}

	out := cmd.OutOrStdout()

	scanner := scan.New(scan.NewGit(root), parser.NewDefaultRegistry(cfg.Scanners.Markdown.Flavor), cfg, log)
	repo, scanErrs, err := scanner.Scan(root, scanMode)
	if err != nil {
		return err
	}

	if untracked := scan.UntrackedScannable(repo); len(untracked) > 0 {
		display.WarnUntrackedFiles(untracked).Display(cmd.ErrOrStderr())
	}

	if verbose {
		display.RepoDump(out, repo)
	}

	v, err := verify.New(cfg, repo, verify.Options{
		Mode:             mode,
		IncludeUntracked: includeUntracked,
		Logger:           log,
	})
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Progress bar defaults to on for interactive runs outside CI
	barEnabled := !progress.IsCI() && progress.InteractiveOutput(os.Stderr)
	if flags.Changed("progress-bar") {
		barEnabled, _ = flags.GetBool("progress-bar")
	} else if flags.Changed("no-progress-bar") {
		off, _ := flags.GetBool("no-progress-bar")
		barEnabled = !off
	}
	reporter := progress.NewReporter(v.Progress(), cmd.ErrOrStderr(), barEnabled)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reporter.Start()
	result, runErr := v.Run(ctx)
	reporter.Stop()

	display.ScanErrors(out, root, scanErrs)
	display.VerifyErrors(out, root, result.Issues)
	display.CopyPastes(out, root, result.CopyPastes)

	switch {
	case runErr != nil:
		log.LogWarn("Interrupted, reported results are partial")
		return ErrChecksFailed
	case len(scanErrs) > 0 || len(result.Issues) > 0:
		return ErrChecksFailed
	default:
		display.Success(out)
		return nil
	}
}
