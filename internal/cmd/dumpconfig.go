package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andreasabel/xrefcheck/internal/config"
)

// NewDumpConfigCommand creates the dump-config subcommand.
func NewDumpConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump-config",
		Short: "Print the default configuration as YAML",
		Long: `Print the built-in default configuration, ready to be edited and
committed as .xrefcheck.yaml.

Examples:
  # Inspect the defaults
  xrefcheck dump-config

  # Write them next to your documentation
  xrefcheck dump-config --output .xrefcheck.yaml`,
		Args:         cobra.NoArgs,
		RunE:         runDumpConfig,
		SilenceUsage: true,
	}

	cmd.Flags().StringP("output", "o", "", "Write the configuration to a file instead of stdout")
	cmd.Flags().BoolP("force", "f", false, "Overwrite the output file if it exists")

	return cmd
}

// runDumpConfig implements the dump-config command logic.
func runDumpConfig(cmd *cobra.Command, args []string) error {
	data, err := config.DefaultConfig().Dump()
	if err != nil {
		return fmt.Errorf("rendering configuration: %w", err)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	if !force {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("%s already exists, pass --force to overwrite", output)
		}
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("writing configuration: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", output)
	return nil
}
