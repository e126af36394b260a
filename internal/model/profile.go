package model

import "time"

// OutcomeStatus is the terminal state of one provider probe within a search
// pass. A probe always reaches exactly one of these states; there are no
// retries within a pass.
type OutcomeStatus string

const (
	// StatusSuccess means the probe ran and returned data.
	StatusSuccess OutcomeStatus = "success"
	// StatusEmpty means the probe ran cleanly but found nothing.
	// This is distinct from failure: the lookup itself worked.
	StatusEmpty OutcomeStatus = "empty"
	// StatusFailure means the probe call errored, timed out, or returned
	// unparseable data.
	StatusFailure OutcomeStatus = "failure"
)

// ProviderOutcome records the result of a single provider probe.
// Failures are isolated here and never propagated as top-level errors.
type ProviderOutcome struct {
	// Provider is the probe's registered name (e.g. "dns_records").
	Provider string `json:"provider"`

	// Status is the probe's terminal state.
	Status OutcomeStatus `json:"status"`

	// Payload is the opaque structured value the probe returned.
	// Nil for empty and failed probes.
	Payload any `json:"payload,omitempty"`

	// Error holds the failure reason when Status is StatusFailure.
	Error string `json:"error,omitempty"`
}

// Profile is the aggregated, scored result for one query.
// Once returned to a caller it is never mutated; a cache hit returns the
// stored profile unchanged apart from the FromCache flag.
type Profile struct {
	// Query is the validated input this profile answers.
	Query Query `json:"query"`

	// Sources maps provider names to their payloads. Providers that failed
	// or found nothing contribute an empty entry of the expected shape, so
	// downstream consumers can still count them as queried.
	Sources map[string]any `json:"sources"`

	// Breaches lists breach records for email queries. The breach provider's
	// payload is lifted to the top level because breach data is the primary
	// signal for email reconnaissance.
	Breaches []any `json:"breaches,omitempty"`

	// Confidence is the breadth-of-coverage score in [0, 100]: the fraction
	// of queried providers that returned non-empty data. It is not a
	// statistical confidence.
	Confidence float64 `json:"confidence"`

	// FromCache is true when the profile was served from the cache store
	// without a fresh orchestration pass.
	FromCache bool `json:"from_cache"`

	// Timestamp is when the orchestration pass that built this profile ran.
	Timestamp time.Time `json:"timestamp"`

	// ElapsedSeconds is the wall-clock duration of the orchestration pass.
	// Cache hits keep the duration of the pass that originally built the
	// profile.
	ElapsedSeconds float64 `json:"elapsed_seconds,omitempty"`

	// Error carries an aggregation-level error message, if any. The profile
	// is still structurally valid and contains whatever sources merged
	// successfully.
	Error string `json:"error,omitempty"`
}

// NewProfile creates a Profile for the given query with an initialized
// sources map.
func NewProfile(q Query) *Profile {
	return &Profile{
		Query:   q,
		Sources: make(map[string]any),
	}
}
