// Package model defines the core domain types for RavenTrace.
//
// The central types are:
//   - Query: a validated, normalized search input (email, phone, or handle)
//   - Profile: the aggregated result returned to callers
//   - ProviderOutcome: the terminal state of a single provider probe
//
// Design decision: validation lives on the Query constructor rather than in
// a separate validator service because a Query is a value object - it cannot
// exist in an invalid state. This mirrors how addresses, identifiers, and
// other validated inputs are modeled throughout the codebase.
package model
