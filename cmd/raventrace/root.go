// Package main provides the entry point for the RavenTrace CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for RavenTrace.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "raventrace",
		Short: "Passive reconnaissance aggregator for emails, phones, and handles",
		Long: `RavenTrace aggregates public data sources into a single identity profile.

Given an email address, phone number, or public handle, it dispatches
concurrent lookups against breach corpora, social platforms, code forges,
DNS, and carrier databases, then merges the results into a confidence-scored
profile. Results are cached locally so repeated lookups are instant.

RavenTrace only queries public sources and never contacts the target.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewCacheCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}
