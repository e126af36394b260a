// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (API keys, tokens, secrets)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, hibp-api-key, X-Api-Key)
//   - Secret values detected by pattern matching (passwords, tokens, keys)
//   - Session identifiers and authentication tokens
//
// RavenTrace calls third-party APIs with user-supplied keys, and log lines
// routinely carry request metadata. Even in verbose mode, sensitive values
// are masked to prevent accidental exposure of credentials in logs that may
// be shared or stored.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("request sent",
//	    "api_key", "abc123",  // Will be sanitized to "***REDACTED***"
//	    "url", "https://emailrep.io/query",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
