// Package main provides the entry point for the RavenTrace CLI.
//
// RavenTrace is a passive reconnaissance aggregator. Given an email address,
// phone number, or public handle, it queries a set of public data sources
// concurrently and merges the results into a single confidence-scored profile.
//
// Usage:
//
//	raventrace search user@example.com
//	raventrace search --kind phone --locale FR 0612345678
//
// See --help for all available options.
package main

// main is the entry point for RavenTrace.
func main() {
	Execute()
}
