package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed templates/raventrace.yaml
var credentialsTemplate embed.FS

// credentialsFileName is the default credentials file name.
const credentialsFileName = ".raventrace"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new RavenTrace credentials file",
		Long: `Initialize creates a new .raventrace credentials file in the current directory.

The generated file includes:
- Commented slots for every provider API key
- A default locale setting for phone queries
- Documentation for all available options

All providers work without keys in a degraded mode; keys unlock
authenticated endpoints with better data and higher rate limits.

Examples:
  # Create .raventrace in current directory
  raventrace init

  # Create credentials file at a specific path
  raventrace init -o mycreds.yaml

  # Force overwrite existing file
  raventrace init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", credentialsFileName,
		"Output file path for the credentials file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing credentials file")

	return cmd
}

// runInitCmd executes the init command.
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
			return fmt.Errorf("credentials file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := credentialsTemplate.ReadFile("templates/raventrace.yaml")
	if err != nil {
		return fmt.Errorf("failed to read credentials template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// API keys only; never world-readable.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	fmt.Printf("Created credentials file: %s\n", outputPath)
	fmt.Println("\nEdit this file to add provider API keys such as:")
	fmt.Println("  - emailrep (email reputation)")
	fmt.Println("  - hibp (Have I Been Pwned breach lookups)")

	return nil
}
