package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for xrefcheck.
// Running the root command without a subcommand performs a check.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xrefcheck",
		Short: "Cross-reference checker for repository documentation",
		Long: `Xrefcheck scans a git repository for documentation files, collects every
link and anchor, and verifies that all of them resolve: local paths must
exist in the repository, anchors must match a heading or an explicit
<a name> in the target document, and external URLs must answer a healthy
HTTP response.

Running xrefcheck without a subcommand is the same as running
"xrefcheck check".

Examples:
  # Check the current repository
  xrefcheck

  # Check another repository, local references only
  xrefcheck check --root ../docs --mode local

  # Write the default configuration for editing
  xrefcheck dump-config --output .xrefcheck.yaml`,
		Version: Version,
		Args:    cobra.NoArgs,
		RunE:    runCheck,
		// Silence usage on errors to avoid duplicate help text; errors are
		// printed by main, which also maps them to exit codes.
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addCheckFlags(cmd)

	// Add subcommands
	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewDumpConfigCommand())

	return cmd
}
