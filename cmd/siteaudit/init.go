package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/siteaudit/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/siteaudit.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a siteaudit policy file",
		Long: `Init writes a .siteaudit policy file with the default host lists and
commented examples for placeholder patterns, content selector and extra
request headers.

Examples:
  # Create .siteaudit in the current directory
  siteaudit init

  # Write to a specific path
  siteaudit init -o policy.yaml

  # Overwrite an existing file
  siteaudit init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the policy file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing policy file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("policy file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/siteaudit.yaml")
	if err != nil {
		return fmt.Errorf("failed to read policy template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write policy file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created policy file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to set:")
	fmt.Fprintln(out, "  - dev/prod and blocked host lists")
	fmt.Fprintln(out, "  - placeholder text patterns")
	fmt.Fprintln(out, "  - the content region selector and request headers")

	return nil
}
