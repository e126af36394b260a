// Package cache provides SQLite-based storage for search profiles.
//
// Profiles are cached per (query kind, normalized query) so repeated lookups
// within the TTL window skip the provider probes entirely. Expiry is lazy:
// staleness is checked at read time against an injectable clock, and stale
// rows physically remain until EvictOlderThan removes them.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
//  1. No external dependencies - the cache is a single file
//  2. CGO-free implementation allows easy cross-compilation
//  3. A single-row UPSERT gives the atomic last-writer-wins semantics the
//     engine relies on
//  4. WAL mode provides good concurrent read performance
package cache
