package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Nyx-Off/RavenTrace/internal/cache"
	"github.com/Nyx-Off/RavenTrace/internal/config"
)

// NewCacheCmd creates the cache command with its subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the local profile cache",
		Long: `Cache manages the local SQLite profile cache.

Profiles are cached per query so repeated searches are served from disk.
Stale entries are ignored by reads but stay on disk until evicted.

Examples:
  # List cached profiles
  raventrace cache list

  # Remove entries older than a week (the default)
  raventrace cache evict

  # Remove entries older than two days
  raventrace cache evict --older-than 48h

  # Empty the cache entirely
  raventrace cache evict --all`,
	}

	cmd.PersistentFlags().String("db-dir", "",
		"Cache database directory (default: XDG data directory)")

	cmd.AddCommand(newCacheListCmd())
	cmd.AddCommand(newCacheEvictCmd())

	return cmd
}

// newCacheListCmd creates the cache list subcommand.
func newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached profiles",
		Args:  cobra.NoArgs,
		RunE:  runCacheListCmd,
	}
}

// newCacheEvictCmd creates the cache evict subcommand.
func newCacheEvictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evict",
		Short: "Remove old entries from the cache",
		Args:  cobra.NoArgs,
		RunE:  runCacheEvictCmd,
	}

	cmd.Flags().Duration("older-than", config.DefaultEvictAge,
		"Remove entries older than this age")
	cmd.Flags().Bool("all", false,
		"Remove every entry regardless of age")

	return cmd
}

// openCacheFromFlags opens the existing cache database.
// The cache is not created here; an absent database means nothing was cached.
func openCacheFromFlags(cmd *cobra.Command) (*cache.Store, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	opts := cache.DefaultOptions()
	opts.CreateIfNotExists = false

	store, err := cache.Open(dbDir, opts)
	if err != nil {
		return nil, fmt.Errorf("no cache found in %s (run a search first): %w", dbDir, err)
	}
	return store, nil
}

// runCacheListCmd executes the cache list subcommand.
func runCacheListCmd(cmd *cobra.Command, _ []string) error {
	store, err := openCacheFromFlags(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list cache entries: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tQUERY\tSAVED")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			entry.Kind,
			entry.Key,
			entry.SavedAt.Format("2006-01-02 15:04:05"),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d cached profile(s)\n", len(entries))
	return nil
}

// runCacheEvictCmd executes the cache evict subcommand.
func runCacheEvictCmd(cmd *cobra.Command, _ []string) error {
	age, err := cmd.Flags().GetDuration("older-than")
	if err != nil {
		return err
	}

	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	if all {
		age = 0
	}

	if age < 0 {
		return fmt.Errorf("invalid age %s: must be non-negative", age)
	}

	store, err := openCacheFromFlags(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.EvictOlderThan(cmd.Context(), age)
	if err != nil {
		return fmt.Errorf("failed to evict cache entries: %w", err)
	}

	if all {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached profile(s)\n", removed)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached profile(s) older than %s\n", removed, age)
	}
	return nil
}
