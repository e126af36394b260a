// Package provider implements the probes that query external data sources.
//
// Each probe is an independent unit of work: given a normalized query it
// returns an opaque payload or fails. The engine guarantees isolation - a
// probe that errors, times out, or returns garbage never affects its
// siblings - so probes do not need top-level recovery of their own.
//
// Design decision: We use an interface rather than a concrete type because:
//  1. Different sources require vastly different implementations
//  2. Allows for easy faking in engine tests
//  3. The engine can treat all probes uniformly
//
// HTTP-backed probes share a rate-limited Client so the process as a whole
// stays under external rate limits regardless of concurrency.
package provider
