package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTTL is how long cached profiles stay fresh. 24 hours balances
	// result freshness against provider load: most of the data sources
	// queried (breach corpora, social profiles, carrier records) change on a
	// timescale of days, not minutes.
	DefaultTTL = 24 * time.Hour

	// DefaultEvictAge is the age threshold for the cache eviction command.
	// Entries older than this are physically removed; until then stale rows
	// stay on disk and are simply ignored by reads.
	DefaultEvictAge = 7 * 24 * time.Hour

	// DefaultConcurrency is the number of probes that may run at once.
	// Five concurrent HTTP lookups is enough to keep a search fast without
	// tripping the rate limits of the free API tiers most providers offer.
	DefaultConcurrency = 5

	// DefaultProbeTimeout bounds each individual provider lookup.
	// Providers that have not answered in 15 seconds are treated as failed;
	// there is no retry.
	DefaultProbeTimeout = 15 * time.Second

	// DefaultPassDeadline bounds a whole search pass. When it fires,
	// still-running probes are cancelled and the search returns with
	// whatever completed.
	DefaultPassDeadline = 2 * time.Minute

	// DefaultRateLimit is the outbound request rate in requests per second,
	// shared across all providers. Conservative on purpose: several of the
	// public endpoints ban aggressive clients by IP.
	DefaultRateLimit = 4

	// DefaultBurst is the rate limiter burst size.
	DefaultBurst = 4

	// DefaultUserAgent identifies RavenTrace in HTTP requests. A descriptive
	// User-Agent lets service operators identify scanner traffic in their logs.
	DefaultUserAgent = "RavenTrace/1.0 (+https://github.com/Nyx-Off/RavenTrace)"

	// DefaultMaxBodySize limits the response body size read from providers.
	// 2MB is generous for JSON APIs while preventing memory exhaustion from
	// unexpectedly large responses.
	DefaultMaxBodySize = 2 * 1024 * 1024 // 2MB

	// AppName is the application name used for XDG directory paths.
	AppName = "raventrace"
)

// Config holds all configuration options for RavenTrace.
//
// Design decision: a single flat struct instead of nested sub-structs.
// The number of options is manageable, and nesting would add complexity
// without significant benefit.
type Config struct {
	// Query is the raw search input (email address, phone number, or handle).
	Query string

	// Kind selects the query keyspace: "email", "phone", or "handle".
	Kind string

	// Locale is the ISO 3166-1 alpha-2 region hint used to interpret
	// nationally formatted phone numbers (e.g. "FR", "US"). Required for
	// phone queries unless the number is in international +CC form.
	Locale string

	// ForceRefresh bypasses the cache read path and always runs fresh probes.
	// The fresh result still overwrites the cached entry.
	ForceRefresh bool

	// TTL is the cache freshness window for reads.
	TTL time.Duration

	// EvictAge is the age threshold for the cache evict command.
	EvictAge time.Duration

	// Concurrency is the size of the shared probe worker pool.
	Concurrency int

	// ProbeTimeout bounds each individual provider lookup.
	ProbeTimeout time.Duration

	// PassDeadline bounds a whole search pass. Zero disables the deadline,
	// letting every probe run to its own timeout.
	PassDeadline time.Duration

	// RateLimit is the outbound request rate in requests per second.
	// Zero or negative disables rate limiting.
	RateLimit float64

	// Burst is the rate limiter burst size.
	Burst int

	// UserAgent is the User-Agent header sent with provider requests.
	UserAgent string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of the human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of the
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report. When set, the
	// report is written to this file instead of stdout. Parent directories
	// are created automatically.
	ReportFile string

	// DBDir is the directory holding the SQLite cache database.
	// Defaults to the XDG data directory (~/.local/share/raventrace on Linux).
	DBDir string

	// NoCache disables the profile cache entirely: no reads, no writes.
	NoCache bool

	// ConfigFilePath is the path to the credentials file. If empty, the tool
	// searches for .raventrace in the current directory and then in the
	// user's home directory.
	ConfigFilePath string

	// Credentials holds provider API keys loaded from the credentials file.
	// Populated by LoadCredentials; may be nil when no file was found.
	Credentials *File
}

// NewConfig creates a Config with default values.
//
// Design decision: a constructor instead of relying on zero values, because
// most defaults are non-zero. It also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		TTL:          DefaultTTL,
		EvictAge:     DefaultEvictAge,
		Concurrency:  DefaultConcurrency,
		ProbeTimeout: DefaultProbeTimeout,
		PassDeadline: DefaultPassDeadline,
		RateLimit:    DefaultRateLimit,
		Burst:        DefaultBurst,
		UserAgent:    DefaultUserAgent,
		DBDir:        XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for RavenTrace.
// On Linux: ~/.local/share/raventrace
// On macOS: ~/Library/Application Support/raventrace
// On Windows: %LOCALAPPDATA%\raventrace
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for RavenTrace.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found; fixing one error often makes the
// others irrelevant.
//
// Query syntax itself is not validated here. That is the engine's job,
// which reports a detailed reason per query kind.
func (c *Config) Validate() error {
	if c.Query == "" {
		return ErrNoQuery
	}

	if c.TTL <= 0 {
		return ErrInvalidTTL
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.ProbeTimeout <= 0 {
		return ErrInvalidProbeTimeout
	}

	// PassDeadline zero is valid: it disables the deadline.
	if c.PassDeadline < 0 {
		return ErrInvalidPassDeadline
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
