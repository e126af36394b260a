package config

import "errors"

// Configuration validation errors.
// Package-level sentinel errors let callers use errors.Is() for programmatic
// handling while keeping the messages human-readable.
var (
	// ErrNoQuery is returned when no search query was provided.
	ErrNoQuery = errors.New("no query specified: provide an email, phone number, or handle")

	// ErrInvalidTTL is returned when the cache TTL is not positive.
	ErrInvalidTTL = errors.New("invalid cache TTL: must be positive")

	// ErrInvalidConcurrency is returned when the worker pool size is not
	// positive. A pool of zero workers would never run any probe.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidProbeTimeout is returned when the per-probe timeout is not
	// positive. A zero timeout would fail every probe immediately.
	ErrInvalidProbeTimeout = errors.New("invalid probe timeout: must be positive")

	// ErrInvalidPassDeadline is returned when the pass deadline is negative.
	// Use 0 to disable the deadline.
	ErrInvalidPassDeadline = errors.New("invalid pass deadline: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
