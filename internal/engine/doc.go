// Package engine orchestrates search passes across provider probes.
//
// A search validates its input, consults the profile cache, and on a miss
// dispatches every registered probe for the query kind concurrently on a
// bounded pool. Probe failures are isolated: each probe reaches a terminal
// outcome (success, empty, or failure) and the pass always produces a
// complete profile. The completed profile is scored, persisted, and returned.
//
// Design decision: concurrent searches for the same normalized query share a
// single in-flight pass via singleflight rather than racing duplicate probe
// dispatches and cache writes. The cache write still uses last-writer-wins
// upserts, so the guard is an efficiency measure layered on safe semantics,
// not a correctness requirement.
package engine
