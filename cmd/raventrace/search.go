package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/Nyx-Off/RavenTrace/internal/cache"
	"github.com/Nyx-Off/RavenTrace/internal/config"
	"github.com/Nyx-Off/RavenTrace/internal/engine"
	"github.com/Nyx-Off/RavenTrace/internal/log"
	"github.com/Nyx-Off/RavenTrace/internal/model"
	"github.com/Nyx-Off/RavenTrace/internal/provider"
	"github.com/Nyx-Off/RavenTrace/internal/report"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search public sources for an email, phone number, or handle",
		Long: `Search dispatches concurrent lookups against public data sources and
merges the results into a confidence-scored profile.

The query kind is detected automatically: inputs containing "@" are treated
as email addresses, inputs made of digits and phone punctuation as phone
numbers, everything else as handles. Use --kind to override detection.

Fresh results are cached locally; a repeated search within the cache TTL
is served from disk without touching any provider.

Examples:
  # Search an email address
  raventrace search user@example.com

  # Search a nationally formatted phone number
  raventrace search --kind phone --locale FR 0612345678

  # Search a handle, bypassing the cache
  raventrace search --kind handle --force-refresh johndoe

  # Output a JSON profile to a file
  raventrace search --json -o profile.json user@example.com

Credentials file (.raventrace) example:
  api_keys:
    emailrep: "your-emailrep-key"
    hibp: "your-hibp-key"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearchCmd,
	}

	// Query flags
	cmd.Flags().StringP("kind", "k", "",
		"Query kind: email, phone, or handle (default: auto-detect)")
	cmd.Flags().StringP("locale", "l", "",
		"ISO region code for phone numbers (e.g. FR, US)")
	cmd.Flags().BoolP("force-refresh", "f", false,
		"Bypass the cache and run fresh lookups")

	// Engine tuning flags
	cmd.Flags().Duration("ttl", config.DefaultTTL,
		"Cache freshness window")
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of concurrent provider lookups")
	cmd.Flags().DurationP("probe-timeout", "t", config.DefaultProbeTimeout,
		"Timeout for each provider lookup")
	cmd.Flags().Duration("deadline", config.DefaultPassDeadline,
		"Deadline for a whole search pass (0 disables)")
	cmd.Flags().Float64("rate", config.DefaultRateLimit,
		"Outbound requests per second across all providers (0 disables)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Credentials file path (default: .raventrace in current or home directory)")

	// Cache flags
	cmd.Flags().Bool("no-cache", false,
		"Disable the profile cache entirely")
	cmd.Flags().String("db-dir", "",
		"Cache database directory (default: XDG data directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON profile (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().BoolP("all", "a", false,
		"Show providers that found nothing in the report")

	return cmd
}

// runSearchCmd executes the search command.
func runSearchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildSearchConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	verbose := getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	showEmpty, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}

	return runSearch(ctx, cfg, logger, showEmpty, verbose)
}

// buildSearchConfig creates a Config from cobra command flags.
func buildSearchConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Query = strings.TrimSpace(args[0])

	var err error

	cfg.Kind, err = cmd.Flags().GetString("kind")
	if err != nil {
		return nil, err
	}
	if cfg.Kind == "" {
		cfg.Kind = detectKind(cfg.Query)
	}

	cfg.Locale, err = cmd.Flags().GetString("locale")
	if err != nil {
		return nil, err
	}

	cfg.ForceRefresh, err = cmd.Flags().GetBool("force-refresh")
	if err != nil {
		return nil, err
	}

	cfg.TTL, err = cmd.Flags().GetDuration("ttl")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.ProbeTimeout, err = cmd.Flags().GetDuration("probe-timeout")
	if err != nil {
		return nil, err
	}

	cfg.PassDeadline, err = cmd.Flags().GetDuration("deadline")
	if err != nil {
		return nil, err
	}

	cfg.RateLimit, err = cmd.Flags().GetFloat64("rate")
	if err != nil {
		return nil, err
	}

	cfg.NoCache, err = cmd.Flags().GetBool("no-cache")
	if err != nil {
		return nil, err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load provider credentials. An explicitly specified file must exist;
	// a missing discovered file just means no API keys.
	explicitConfigPath := cfg.ConfigFilePath != ""
	credsPath := config.FindCredentialsFile(cfg.ConfigFilePath)

	if credsPath != "" {
		cfg.Credentials, err = config.LoadCredentials(credsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load credentials file %s: %w", credsPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("credentials file not found: %s", cfg.ConfigFilePath)
	}

	if cfg.Credentials != nil {
		if cfg.Credentials.UserAgent != "" {
			cfg.UserAgent = cfg.Credentials.UserAgent
		}
		if cfg.Locale == "" {
			cfg.Locale = cfg.Credentials.Locale
		}
	}

	return cfg, nil
}

// detectKind guesses the query kind from its shape.
// Anything with "@" is an email; digits with phone punctuation are a phone
// number; everything else is a handle.
func detectKind(query string) string {
	if strings.Contains(query, "@") {
		return "email"
	}

	if query != "" && looksLikePhone(query) {
		return "phone"
	}

	return "handle"
}

// looksLikePhone reports whether the string consists solely of digits and
// common phone punctuation, with at least one digit.
func looksLikePhone(s string) bool {
	hasDigit := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune("+ -.()", r):
		default:
			return false
		}
	}
	return hasDigit
}

// runSearch executes the search and renders the resulting profile.
func runSearch(ctx context.Context, cfg *config.Config, logger *slog.Logger, showEmpty, verbose bool) error {
	kind, err := model.ParseKind(cfg.Kind)
	if err != nil {
		return err
	}

	logger.Info("starting search",
		"kind", kind,
		"forceRefresh", cfg.ForceRefresh,
		"concurrency", cfg.Concurrency,
		"noCache", cfg.NoCache,
	)

	// engine.CacheStore is an interface; assign through it only when a real
	// store exists so a nil *cache.Store never masquerades as a live cache.
	var store engine.CacheStore
	if !cfg.NoCache {
		s, err := cache.Open(cfg.DBDir, cache.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer s.Close()
		store = s
		logger.Info("cache opened", "dir", cfg.DBDir)
	}

	client := provider.NewClient(provider.ClientOptions{
		Timeout:   cfg.ProbeTimeout,
		RateLimit: cfg.RateLimit,
		Burst:     cfg.Burst,
		UserAgent: cfg.UserAgent,
	})
	registry := provider.DefaultRegistry(client, cfg.Credentials.Keys())

	eng := engine.New(registry, store,
		engine.WithLogger(logger),
		engine.WithTTL(cfg.TTL),
		engine.WithConcurrency(cfg.Concurrency),
		engine.WithProbeTimeout(cfg.ProbeTimeout),
		engine.WithPassDeadline(cfg.PassDeadline),
	)

	start := time.Now()
	profile, err := eng.Search(ctx, cfg.Query, kind, engine.SearchOptions{
		ForceRefresh: cfg.ForceRefresh,
		Locale:       cfg.Locale,
	})
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("invalid query: %w", verr)
		}
		return err
	}

	if !cfg.JSONReport && !cfg.MarkdownReport {
		fmt.Printf("Search completed in %s\n", time.Since(start).Round(time.Millisecond))
	}

	return outputProfile(cfg, profile, showEmpty, verbose)
}

// outputProfile renders the profile in the requested format.
func outputProfile(cfg *config.Config, profile *model.Profile, showEmpty, verbose bool) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Profiles carry personal data; keep reports owner-readable only.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output,
			report.WithShowEmpty(showEmpty),
			report.WithVerbose(verbose),
		)
	}

	_, err := writer.Write(profile)
	return err
}
